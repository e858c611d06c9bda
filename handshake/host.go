// Package handshake implements the asymmetric host/client connection dance
// through the punchthrough rendezvous server and direct peer connect,
// including player-slot assignment and reconnection.
package handshake

import (
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/orbital-games/netlobby/config"
	"github.com/orbital-games/netlobby/metrics"
	"github.com/orbital-games/netlobby/netstatus"
	"github.com/orbital-games/netlobby/relay"
	"github.com/orbital-games/netlobby/transport"
	"github.com/orbital-games/netlobby/wire"
	"github.com/orbital-games/netlobby/wire/payload"
	"github.com/orbital-games/netlobby/wire/protocol"
)

// expectedConnectionsCacheSize bounds the host's table of punched peer
// addresses awaiting their direct ConnectionAccepted. A punchthrough that
// never completes (NAT failure, client gave up) must not accumulate
// forever across a long-running host process.
const expectedConnectionsCacheSize = 256

// Host drives the host trajectory of spec §4.3: punch-server rendezvous,
// room allocation, slot assignment, and reconnection of previously-started
// slots.
type Host struct {
	cfg  config.ConnectionConfig
	t    transport.Transport
	core *relay.Core
	log  *zap.Logger

	status netstatus.Status

	serverAddr      transport.PeerAddress
	serverHandleSet bool
	roomID          string

	started       bool
	lobbyCapacity uint8

	// maxPlayers is the configured lobby capacity until StartGame is
	// called, at which point it freezes to the player count at that
	// instant and never changes again.
	maxPlayers uint8

	// rejectSet grows monotonically for the lifetime of one match; it is
	// never pruned.
	rejectSet map[transport.PeerAddress]struct{}

	// reconnectEligible holds slots that were occupied when started became
	// true and whose transport has since dropped; these slots are not
	// reassigned to fresh joiners, only reclaimed by a matching Reconnect.
	reconnectEligible map[uint8]struct{}

	// expectedConnections records a punched peer's address between
	// NatPunchthroughSucceeded and its paired direct ConnectionAccepted.
	expectedConnections *lru.Cache
}

// NewHost constructs a Host bound to cfg and transport t. serverAddr is the
// punchthrough rendezvous server's address.
func NewHost(cfg config.ConnectionConfig, t transport.Transport, serverAddr transport.PeerAddress, log *zap.Logger) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := lru.New(expectedConnectionsCacheSize)
	h := &Host{
		cfg:                 cfg,
		t:                   t,
		core:                relay.NewCore(relay.RoleHost, t, uint8(cfg.LobbyCapacity)),
		log:                 log.With(zap.String("module", "handshake"), zap.String("role", "host")),
		status:              netstatus.Startup,
		serverAddr:          serverAddr,
		lobbyCapacity:       uint8(cfg.LobbyCapacity),
		maxPlayers:          uint8(cfg.LobbyCapacity),
		rejectSet:           make(map[transport.PeerAddress]struct{}),
		reconnectEligible:   make(map[uint8]struct{}),
		expectedConnections: cache,
	}
	return h
}

// Core returns the shared relay core.
func (h *Host) Core() *relay.Core { return h.core }

// Status returns the current handshake status.
func (h *Host) Status() netstatus.Status { return h.status }

// RoomID returns the allocated room id, or "" before it is assigned.
func (h *Host) RoomID() string { return h.roomID }

// Start issues the initial connection to the punchthrough server.
func (h *Host) Start() error {
	h.status = netstatus.PunchServerConnecting
	return h.t.Connect(h.serverAddr)
}

// setTerminal transitions to a terminal status and records the failure
// metric, unless the status is already terminal (absorbing).
func (h *Host) setTerminal(s netstatus.Status) {
	if h.status.Terminal() {
		return
	}
	h.status = s
	metrics.IncHandshakeFailure(s.String())
}

// HandleTransportEvent processes a non-application transport packet: the
// punchthrough server's own events, and direct-connection lifecycle events
// for peers.
func (h *Host) HandleTransportEvent(pkt transport.IncomingPacket) {
	switch pkt.Kind {
	case transport.ConnectionAccepted:
		if !h.serverHandleSet {
			h.serverHandleSet = true
			// Room allocation is requested via the punchthrough
			// sub-object; modeled here as a punch request with no target
			// room, which the server backend interprets as "allocate me
			// one" (see transport/memtransport for the test double's
			// handling of this convention).
			_ = h.t.RequestPunch(h.serverAddr, "")
			return
		}
		// A direct client connection has completed the transport-level
		// handshake; no slot is assigned until its JoinRoom arrives.
		h.log.Debug("direct connection accepted, awaiting JoinRoom", zap.String("peer", string(pkt.Peer.Addr())))

	case transport.NatPunchthroughSucceeded:
		h.expectedConnections.Add(pkt.Peer.Addr(), struct{}{})
		if err := h.t.Connect(pkt.Peer.Addr()); err != nil {
			h.log.Warn("direct connect to punched peer failed", zap.Error(err))
		}

	case transport.DisconnectionNotification, transport.ConnectionLost:
		h.handlePeerLost(pkt.Peer)

	default:
		h.log.Debug("unhandled host transport event", zap.Stringer("kind", pkt.Kind))
	}
}

// HandleAssignedRoom applies the punchthrough server's room allocation.
func (h *Host) HandleAssignedRoom(m *payload.AssignedRoomMessage) {
	h.roomID = m.RoomID
	h.status = netstatus.Connected
	h.core.SetLocalSlot(0)
	metrics.SetConnectedPlayers(h.roomID, int(h.core.NumPlayers()))
}

// HandleFrame processes a decoded application frame received from peer.
func (h *Host) HandleFrame(peer transport.PeerHandle, frame wire.Frame) {
	switch m := frame.Payload.(type) {
	case *payload.AssignedRoomMessage:
		h.HandleAssignedRoom(m)
	case *payload.JoinRoomMessage:
		h.handleJoinRoom(peer, m)
	case *payload.ReconnectRequestMessage:
		h.handleReconnect(peer, m)
	}
}

// handleJoinRoom validates and, if accepted, assigns a slot per spec
// §4.3 step 4.
func (h *Host) handleJoinRoom(peer transport.PeerHandle, m *payload.JoinRoomMessage) {
	if _, rejected := h.rejectSet[peer.Addr()]; rejected {
		_ = h.core.SendFrame(peer, protocol.JoinRoomFail, payload.NewJoinRoomFailMessage(protocol.ReasonRejected))
		_ = h.t.Disconnect(peer)
		return
	}
	if m.APIVersion != h.cfg.APIVersion {
		_ = h.core.SendFrame(peer, protocol.JoinRoomFail, payload.NewJoinRoomFailMessage(protocol.ReasonAPIMismatch))
		h.rejectSet[peer.Addr()] = struct{}{}
		_ = h.t.Disconnect(peer)
		return
	}
	if h.started {
		_ = h.core.SendFrame(peer, protocol.JoinRoomFail, payload.NewJoinRoomFailMessage(protocol.ReasonGameStarted))
		_ = h.t.Disconnect(peer)
		return
	}
	if h.core.NumPlayers() >= h.lobbyCapacity {
		_ = h.core.SendFrame(peer, protocol.JoinRoomFail, payload.NewJoinRoomFailMessage(protocol.ReasonRoomFull))
		_ = h.t.Disconnect(peer)
		return
	}
	slot, ok := h.core.Active().LowestFree(h.lobbyCapacity)
	if !ok {
		_ = h.core.SendFrame(peer, protocol.JoinRoomFail, payload.NewJoinRoomFailMessage(protocol.ReasonRoomFull))
		_ = h.t.Disconnect(peer)
		return
	}
	h.core.BindSlot(slot, peer)
	_ = h.core.SendFrame(peer, protocol.JoinRoom, payload.NewJoinRoomReply(h.cfg.APIVersion, slot, h.lobbyCapacity))
	_ = h.core.BroadcastFrame(protocol.PlayerJoined, payload.NewPlayerJoinedMessage(slot), &slot)
	metrics.SetConnectedPlayers(h.roomID, int(h.core.NumPlayers()))
}

// handleReconnect implements the host reconnection trajectory of spec
// §4.3.
func (h *Host) handleReconnect(peer transport.PeerHandle, m *payload.ReconnectRequestMessage) {
	_, eligible := h.reconnectEligible[m.Slot]
	if m.APIVersion != h.cfg.APIVersion || !eligible || m.RoomID != h.roomID {
		_ = h.core.SendFrame(peer, protocol.JoinRoomFail, payload.NewJoinRoomFailMessage(protocol.ReasonGameStarted))
		_ = h.t.Disconnect(peer)
		return
	}
	delete(h.reconnectEligible, m.Slot)
	h.core.BindSlot(m.Slot, peer)
	bitmap := h.core.Active().Bitmap(h.lobbyCapacity)
	_ = h.core.SendFrame(peer, protocol.Reconnect, payload.NewReconnectReplyMessage(h.cfg.APIVersion, m.Slot, h.lobbyCapacity, bitmap))
	_ = h.core.BroadcastFrame(protocol.PlayerJoined, payload.NewPlayerJoinedMessage(m.Slot), &m.Slot)
	metrics.SetConnectedPlayers(h.roomID, int(h.core.NumPlayers()))
}

// handlePeerLost implements spec §4.3 step 5.
func (h *Host) handlePeerLost(peer transport.PeerHandle) {
	slot, ok := h.core.SlotOf(peer)
	if !ok {
		return
	}
	h.core.UnbindSlot(slot)
	if h.started {
		h.reconnectEligible[slot] = struct{}{}
	}
	_ = h.core.BroadcastFrame(protocol.PlayerLeft, payload.NewPlayerLeftMessage(slot), nil)
	metrics.SetConnectedPlayers(h.roomID, int(h.core.NumPlayers()))
}

// StartGame freezes the lobby: sets started = true and broadcasts
// StartGame to every connected slot.
func (h *Host) StartGame() {
	h.started = true
	h.maxPlayers = h.core.NumPlayers()
	_ = h.core.BroadcastFrame(protocol.StartGame, payload.NewStartGameMessage(h.maxPlayers), nil)
}

// Started reports whether StartGame has been called.
func (h *Host) Started() bool { return h.started }

// MaxPlayers returns the configured lobby capacity before StartGame, or
// the player count frozen at the moment StartGame was called.
func (h *Host) MaxPlayers() uint8 { return h.maxPlayers }

// ManualDisconnect tears down every bound peer and transitions to
// Disconnected.
func (h *Host) ManualDisconnect() {
	for _, peer := range h.core.PeerSlots() {
		_ = h.t.Disconnect(peer)
	}
	h.status = netstatus.Disconnected
}
