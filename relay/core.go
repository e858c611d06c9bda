// Package relay implements the Membership & Relay Core: the per-slot peer
// handle table, the active-player bitset, and the broadcast/relay mechanics
// that present a peer-to-peer illusion over a star topology.
package relay

import (
	"bytes"

	"github.com/orbital-games/netlobby/slotset"
	"github.com/orbital-games/netlobby/transport"
	"github.com/orbital-games/netlobby/wire"
	"github.com/orbital-games/netlobby/wire/payload"
	"github.com/orbital-games/netlobby/wire/protocol"
)

// Role distinguishes the host and client relay trajectories.
type Role uint8

// The two relay roles.
const (
	RoleHost Role = iota
	RoleClient
)

// Core holds the membership table shared with the handshake state machine
// and implements Send / SendToHost / the relay rule. A Core is constructed
// once per Connection and lives for its whole lifetime, including through
// reconnection.
type Core struct {
	role          Role
	lobbyCapacity uint8
	t             transport.Transport

	// peerSlots holds, for the host role only, the live transport handle for
	// every occupied non-host slot. A slot's presence here and its bit in
	// active must agree, per spec's peer_slots/connected_players invariant.
	peerSlots map[uint8]transport.PeerHandle
	// hostHandle holds, for the client role only, the live handle to the
	// host once connected.
	hostHandle *transport.PeerHandle

	active slotset.BitSet

	// pendingLocal queues payloads this Connection sent itself, to be
	// delivered to the local dispatch callback on the next Receive rather
	// than synchronously inside Send — matching "the sending peer observes
	// its own send on the next receive call".
	pendingLocal [][]byte
}

// NewCore returns a Core for role, bound to transport t and a lobby of
// lobbyCapacity (including the host).
func NewCore(role Role, t transport.Transport, lobbyCapacity uint8) *Core {
	return &Core{role: role, t: t, lobbyCapacity: lobbyCapacity}
}

// BindSlot records that slot is now occupied by handle (host role).
func (c *Core) BindSlot(slot uint8, handle transport.PeerHandle) {
	if c.peerSlots == nil {
		c.peerSlots = make(map[uint8]transport.PeerHandle)
	}
	c.peerSlots[slot] = handle
	c.active.Set(slot)
}

// UnbindSlot removes slot's transport handle and clears its active bit
// (host role). The caller is responsible for any reconnect-eligible
// bookkeeping; Core only tracks current liveness.
func (c *Core) UnbindSlot(slot uint8) {
	delete(c.peerSlots, slot)
	c.active.Clear(slot)
}

// SetLocalSlot marks slot as occupied by this Connection itself (slot 0 for
// a host, the assigned slot for a client).
func (c *Core) SetLocalSlot(slot uint8) {
	c.active.Set(slot)
}

// SetHost records the live handle to the host (client role).
func (c *Core) SetHost(handle transport.PeerHandle) {
	c.hostHandle = &handle
}

// ClearHost clears the handle to the host (client role), e.g. on
// disconnection pending a reconnect attempt.
func (c *Core) ClearHost() {
	c.hostHandle = nil
}

// HostHandle returns the current host handle and whether one is set
// (client role).
func (c *Core) HostHandle() (transport.PeerHandle, bool) {
	if c.hostHandle == nil {
		return transport.PeerHandle{}, false
	}
	return *c.hostHandle, true
}

// SetActive marks slot as active in the membership bitset directly; used by
// a client applying a PlayerJoined notification or a reconnect reply's
// bitmap, where there is no local transport handle to track.
func (c *Core) SetActive(slot uint8) {
	c.active.Set(slot)
}

// ClearActive clears slot's membership bit directly; used by a client
// applying a PlayerLeft notification.
func (c *Core) ClearActive(slot uint8) {
	c.active.Clear(slot)
}

// ReplaceActive overwrites the whole membership bitset, used by a client
// rebuilding its view from a reconnect reply's active-slot bitmap.
func (c *Core) ReplaceActive(b slotset.BitSet) {
	c.active = b
}

// Active returns the current membership bitset.
func (c *Core) Active() slotset.BitSet {
	return c.active
}

// IsActive reports whether slot is currently a live member.
func (c *Core) IsActive(slot uint8) bool {
	return c.active.Get(slot)
}

// NumPlayers returns the number of currently active slots.
func (c *Core) NumPlayers() uint8 {
	return uint8(c.active.CountOnes())
}

// PeerSlots returns the host's live slot -> handle table. Only meaningful
// for RoleHost.
func (c *Core) PeerSlots() map[uint8]transport.PeerHandle {
	return c.peerSlots
}

// SlotOf returns the slot bound to handle and true, or false if handle is
// not currently a bound peer. Host role only; used to resolve an incoming
// packet's sender to a slot for the relay rule.
func (c *Core) SlotOf(handle transport.PeerHandle) (uint8, bool) {
	for slot, h := range c.peerSlots {
		if h == handle {
			return slot, true
		}
	}
	return 0, false
}

// Send implements the application-facing send primitive. The payload is
// always queued for local delivery on the next Receive, in addition to
// whatever relay/forwarding the role requires.
func (c *Core) Send(data []byte) error {
	c.pendingLocal = append(c.pendingLocal, data)
	switch c.role {
	case RoleHost:
		return c.broadcastStandard(data, nil)
	case RoleClient:
		host, ok := c.HostHandle()
		if !ok {
			return transport.ErrNotConnected
		}
		return c.sendFrame(host, protocol.Standard, payload.NewStandardMessage(data))
	}
	return nil
}

// SendToHost implements send_to_host. On a client it sends a DirectToHost
// frame to the host. On a host it is a no-op equivalent to local delivery,
// since the host already IS the host.
func (c *Core) SendToHost(data []byte) error {
	if c.role == RoleHost {
		c.pendingLocal = append(c.pendingLocal, data)
		return nil
	}
	host, ok := c.HostHandle()
	if !ok {
		return transport.ErrNotConnected
	}
	var buf bytes.Buffer
	if err := wire.Encode(&buf, protocol.DirectToHost, payload.NewDirectToHostMessage(data)); err != nil {
		return err
	}
	return c.t.Send(host, buf.Bytes())
}

// DrainLocal returns and clears every payload queued locally by Send /
// SendToHost since the last DrainLocal call.
func (c *Core) DrainLocal() [][]byte {
	out := c.pendingLocal
	c.pendingLocal = nil
	return out
}

// HandleIncomingStandard implements the relay rule for a Standard frame
// received from slot fromSlot, carrying data. It returns the payload to
// dispatch locally. Host role additionally rebroadcasts to every slot but
// the sender.
func (c *Core) HandleIncomingStandard(fromSlot uint8, data []byte) []byte {
	if c.role == RoleHost {
		c.broadcastStandard(data, &fromSlot)
	}
	return data
}

// broadcastStandard sends a Standard frame carrying data to every bound
// slot except exceptSlot (if non-nil). Host role only.
func (c *Core) broadcastStandard(data []byte, exceptSlot *uint8) error {
	var buf bytes.Buffer
	if err := wire.Encode(&buf, protocol.Standard, payload.NewStandardMessage(data)); err != nil {
		return err
	}
	raw := buf.Bytes()
	for slot, handle := range c.peerSlots {
		if exceptSlot != nil && slot == *exceptSlot {
			continue
		}
		if err := c.t.Send(handle, raw); err != nil {
			return err
		}
	}
	return nil
}

// sendFrame encodes kind+p and sends it to dest.
func (c *Core) sendFrame(dest transport.PeerHandle, kind protocol.PacketKind, p payload.Payload) error {
	var buf bytes.Buffer
	if err := wire.Encode(&buf, kind, p); err != nil {
		return err
	}
	return c.t.Send(dest, buf.Bytes())
}

// SendFrame encodes and sends a handshake/control frame to dest. Exported
// for use by package handshake, which shares this Core's transport and
// peer-slot table.
func (c *Core) SendFrame(dest transport.PeerHandle, kind protocol.PacketKind, p payload.Payload) error {
	return c.sendFrame(dest, kind, p)
}

// BroadcastFrame sends a handshake/control frame to every bound slot
// (PlayerJoined, PlayerLeft, StartGame), optionally excluding one slot.
// Host role only.
func (c *Core) BroadcastFrame(kind protocol.PacketKind, p payload.Payload, exceptSlot *uint8) error {
	var buf bytes.Buffer
	if err := wire.Encode(&buf, kind, p); err != nil {
		return err
	}
	raw := buf.Bytes()
	for slot, handle := range c.peerSlots {
		if exceptSlot != nil && slot == *exceptSlot {
			continue
		}
		if err := c.t.Send(handle, raw); err != nil {
			return err
		}
	}
	return nil
}
