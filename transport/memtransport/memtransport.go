// Package memtransport is an in-process transport.Transport double used by
// package handshake/relay/netconn tests. It models the punchthrough
// rendezvous server and packet delivery entirely with Go channels and
// maps, with no goroutines of its own, so it is deterministic under
// go test -race.
package memtransport

import (
	"bytes"
	"sync"

	"github.com/orbital-games/netlobby/roomid"
	"github.com/orbital-games/netlobby/transport"
	"github.com/orbital-games/netlobby/wire"
	"github.com/orbital-games/netlobby/wire/payload"
	"github.com/orbital-games/netlobby/wire/protocol"
)

const inboxCapacity = 256

// Network is the shared rendezvous every Transport in one test registers
// with. It doubles as the punchthrough server: it allocates room ids and
// matches clients to hosts by room id.
type Network struct {
	mu         sync.Mutex
	serverAddr transport.PeerAddress
	nodes      map[transport.PeerAddress]*Transport
	rooms      map[string]transport.PeerAddress
	connID     uint64
}

// NewNetwork returns a Network whose punchthrough server is reachable at
// serverAddr.
func NewNetwork(serverAddr transport.PeerAddress) *Network {
	return &Network{
		serverAddr: serverAddr,
		nodes:      make(map[transport.PeerAddress]*Transport),
		rooms:      make(map[string]transport.PeerAddress),
	}
}

// ServerAddr returns the network's punchthrough server address.
func (n *Network) ServerAddr() transport.PeerAddress { return n.serverAddr }

func (n *Network) register(addr transport.PeerAddress, t *Transport) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nodes[addr] = t
}

func (n *Network) lookup(addr transport.PeerAddress) (*Transport, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.nodes[addr]
	return t, ok
}

func (n *Network) nextConnID() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connID++
	return n.connID
}

func (n *Network) allocateRoom(hostAddr transport.PeerAddress) string {
	room := roomid.Generate()
	n.mu.Lock()
	n.rooms[room] = hostAddr
	n.mu.Unlock()
	return room
}

func (n *Network) hostOf(room string) (transport.PeerAddress, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	addr, ok := n.rooms[room]
	return addr, ok
}

// Transport is one peer's view of a Network.
type Transport struct {
	addr    transport.PeerAddress
	network *Network

	mu    sync.Mutex
	peers map[transport.PeerAddress]transport.PeerHandle

	inbox chan transport.IncomingPacket
}

// NewTransport returns a Transport for addr, registered with network.
func NewTransport(network *Network, addr transport.PeerAddress) *Transport {
	t := &Transport{
		addr:    addr,
		network: network,
		peers:   make(map[transport.PeerAddress]transport.PeerHandle),
		inbox:   make(chan transport.IncomingPacket, inboxCapacity),
	}
	network.register(addr, t)
	return t
}

// Poll implements transport.Transport.
func (t *Transport) Poll() []transport.IncomingPacket {
	var out []transport.IncomingPacket
	for {
		select {
		case pkt := <-t.inbox:
			out = append(out, pkt)
		default:
			return out
		}
	}
}

// Send implements transport.Transport.
func (t *Transport) Send(dest transport.PeerHandle, payload []byte) error {
	target, ok := t.network.lookup(dest.Addr())
	if !ok {
		return transport.ErrNotConnected
	}
	target.mu.Lock()
	fromHandle, ok := target.peers[t.addr]
	target.mu.Unlock()
	if !ok {
		return transport.ErrNotConnected
	}
	target.deliver(transport.IncomingPacket{Peer: fromHandle, Kind: transport.ApplicationFrame, Payload: payload})
	return nil
}

// Broadcast implements transport.Transport.
func (t *Transport) Broadcast(payload []byte, except *transport.PeerHandle) {
	t.mu.Lock()
	handles := make([]transport.PeerHandle, 0, len(t.peers))
	for _, h := range t.peers {
		handles = append(handles, h)
	}
	t.mu.Unlock()
	for _, h := range handles {
		if except != nil && h.Addr() == except.Addr() {
			continue
		}
		_ = t.Send(h, payload)
	}
}

// Connect implements transport.Transport. Connecting to the network's
// server address always succeeds immediately, modeling a rendezvous
// server that is always reachable; connecting to any other unregistered
// address fails with ConnectionAttemptFailed.
func (t *Transport) Connect(addr transport.PeerAddress) error {
	if addr == t.network.serverAddr {
		h := transport.NewPeerHandle(t.network.nextConnID(), addr)
		t.mu.Lock()
		t.peers[addr] = h
		t.mu.Unlock()
		t.deliver(transport.IncomingPacket{Peer: h, Kind: transport.ConnectionAccepted})
		return nil
	}

	target, ok := t.network.lookup(addr)
	if !ok {
		t.deliver(transport.IncomingPacket{Peer: transport.NewPeerHandle(0, addr), Kind: transport.ConnectionAttemptFailed})
		return nil
	}

	// Punchthrough asks both ends to dial the same peer to win the NAT
	// race; whichever Connect call lands second here is a no-op, since the
	// first call already delivered ConnectionAccepted to both sides.
	t.mu.Lock()
	_, already := t.peers[addr]
	t.mu.Unlock()
	if already {
		return nil
	}

	id := t.network.nextConnID()
	localHandle := transport.NewPeerHandle(id, addr)
	remoteHandle := transport.NewPeerHandle(id, t.addr)
	t.mu.Lock()
	t.peers[addr] = localHandle
	t.mu.Unlock()
	target.mu.Lock()
	target.peers[t.addr] = remoteHandle
	target.mu.Unlock()

	t.deliver(transport.IncomingPacket{Peer: localHandle, Kind: transport.ConnectionAccepted})
	target.deliver(transport.IncomingPacket{Peer: remoteHandle, Kind: transport.ConnectionAccepted})
	return nil
}

// Disconnect implements transport.Transport.
func (t *Transport) Disconnect(handle transport.PeerHandle) error {
	addr := handle.Addr()
	t.mu.Lock()
	delete(t.peers, addr)
	t.mu.Unlock()
	if addr == t.network.serverAddr {
		return nil
	}
	target, ok := t.network.lookup(addr)
	if !ok {
		return nil
	}
	target.mu.Lock()
	remoteHandle, ok := target.peers[t.addr]
	if ok {
		delete(target.peers, t.addr)
	}
	target.mu.Unlock()
	if ok {
		target.deliver(transport.IncomingPacket{Peer: remoteHandle, Kind: transport.DisconnectionNotification})
	}
	return nil
}

// RequestPunch implements transport.Transport against the Network's
// built-in punchthrough server. targetRoom == "" is this package's
// convention for "allocate me a new room" (used by a host); a non-empty
// targetRoom asks to be punched to that room's host (used by a client).
func (t *Transport) RequestPunch(via transport.PeerAddress, targetRoom string) error {
	if via != t.network.serverAddr {
		return transport.ErrPunchthroughUnsupported
	}
	t.mu.Lock()
	serverHandle, ok := t.peers[via]
	t.mu.Unlock()
	if !ok {
		return transport.ErrNotConnected
	}

	if targetRoom == "" {
		room := t.network.allocateRoom(t.addr)
		var buf bytes.Buffer
		if err := wire.Encode(&buf, protocol.AssignedRoom, payload.NewAssignedRoomMessage(room)); err != nil {
			return err
		}
		t.deliver(transport.IncomingPacket{Peer: serverHandle, Kind: transport.ApplicationFrame, Payload: buf.Bytes()})
		return nil
	}

	hostAddr, ok := t.network.hostOf(targetRoom)
	if !ok {
		t.deliver(transport.IncomingPacket{Peer: serverHandle, Kind: transport.NatTargetNotConnected})
		return nil
	}
	hostTransport, ok := t.network.lookup(hostAddr)
	if !ok {
		t.deliver(transport.IncomingPacket{Peer: serverHandle, Kind: transport.NatTargetNotConnected})
		return nil
	}

	t.deliver(transport.IncomingPacket{
		Peer: transport.NewPeerHandle(t.network.nextConnID(), hostAddr),
		Kind: transport.NatPunchthroughSucceeded,
	})
	hostTransport.deliver(transport.IncomingPacket{
		Peer: transport.NewPeerHandle(t.network.nextConnID(), t.addr),
		Kind: transport.NatPunchthroughSucceeded,
	})
	return nil
}

func (t *Transport) deliver(pkt transport.IncomingPacket) {
	select {
	case t.inbox <- pkt:
	default:
		// Inbox full: drop rather than block. A Transport never blocks its
		// caller, matching the real contract this stands in for.
	}
}
