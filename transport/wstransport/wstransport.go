// Package wstransport implements transport.Transport over
// github.com/gorilla/websocket, the "optional websocket/relay backend"
// named in the spec. A relay server has no NAT to traverse — it IS the
// rendezvous — so RequestPunch always fails with
// transport.ErrPunchthroughUnsupported; a consumer using this backend
// connects straight to the relay's address for both roles.
package wstransport

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/orbital-games/netlobby/transport"
)

// Transport dials and accepts gorilla/websocket connections, wrapping each
// in a background reader goroutine that feeds a shared channel. Poll
// drains that channel synchronously; Connection state is only ever
// touched from the caller's goroutine, preserving the "no locking at the
// handshake/relay layer" invariant.
type Transport struct {
	dialer *websocket.Dialer

	mu      sync.Mutex
	conns   map[uint64]*websocket.Conn
	addrs   map[uint64]transport.PeerAddress
	nextID  uint64
	inbox   chan transport.IncomingPacket
}

// New returns a Transport ready to Connect to one or more relay
// addresses. inboxSize bounds the internal event queue; 0 selects a
// sensible default.
func New(inboxSize int) *Transport {
	if inboxSize <= 0 {
		inboxSize = 256
	}
	return &Transport{
		dialer: websocket.DefaultDialer,
		conns:  make(map[uint64]*websocket.Conn),
		addrs:  make(map[uint64]transport.PeerAddress),
		inbox:  make(chan transport.IncomingPacket, inboxSize),
	}
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

// Connect dials addr (a ws:// or wss:// URL) and, on success, spawns the
// background reader goroutine required by gorilla/websocket (one reader
// per connection) and emits ConnectionAccepted on a later Poll.
func (t *Transport) Connect(addr transport.PeerAddress) error {
	conn, _, err := t.dialer.Dial(string(addr), nil)
	if err != nil {
		t.push(transport.IncomingPacket{
			Peer: transport.NewPeerHandle(0, addr),
			Kind: transport.ConnectionAttemptFailed,
		})
		return nil
	}
	id := atomic.AddUint64(&t.nextID, 1)
	handle := transport.NewPeerHandle(id, addr)

	t.mu.Lock()
	t.conns[id] = conn
	t.addrs[id] = addr
	t.mu.Unlock()

	t.push(transport.IncomingPacket{Peer: handle, Kind: transport.ConnectionAccepted})
	go t.readLoop(id, handle, conn)
	return nil
}

// Disconnect implements transport.Transport.
func (t *Transport) Disconnect(handle transport.PeerHandle) error {
	id := t.idFor(handle)
	t.mu.Lock()
	conn, ok := t.conns[id]
	delete(t.conns, id)
	delete(t.addrs, id)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return conn.Close()
}

// Send implements transport.Transport.
func (t *Transport) Send(dest transport.PeerHandle, payload []byte) error {
	id := t.idFor(dest)
	t.mu.Lock()
	conn, ok := t.conns[id]
	t.mu.Unlock()
	if !ok {
		return transport.ErrNotConnected
	}
	return conn.WriteMessage(websocket.BinaryMessage, payload)
}

// Broadcast implements transport.Transport.
func (t *Transport) Broadcast(payload []byte, except *transport.PeerHandle) {
	t.mu.Lock()
	ids := make([]uint64, 0, len(t.conns))
	for id := range t.conns {
		ids = append(ids, id)
	}
	t.mu.Unlock()
	for _, id := range ids {
		if except != nil && t.idFor(*except) == id {
			continue
		}
		t.mu.Lock()
		addr := t.addrs[id]
		t.mu.Unlock()
		_ = t.Send(transport.NewPeerHandle(id, addr), payload)
	}
}

// RequestPunch implements transport.Transport. A relay backend has no NAT
// to traverse.
func (t *Transport) RequestPunch(via transport.PeerAddress, targetRoom string) error {
	return transport.ErrPunchthroughUnsupported
}

// idFor extracts handle's connection id. PeerHandle.ID() is opaque to
// callers of package transport but this backend assigned it itself, so
// it's safe to rely on here.
func (t *Transport) idFor(handle transport.PeerHandle) uint64 {
	return handle.ID()
}

func (t *Transport) readLoop(id uint64, handle transport.PeerHandle, conn *websocket.Conn) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			delete(t.conns, id)
			delete(t.addrs, id)
			t.mu.Unlock()
			t.push(transport.IncomingPacket{Peer: handle, Kind: transport.ConnectionLost})
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		t.push(transport.IncomingPacket{Peer: handle, Kind: transport.ApplicationFrame, Payload: data})
	}
}

func (t *Transport) push(pkt transport.IncomingPacket) {
	select {
	case t.inbox <- pkt:
	default:
	}
}
