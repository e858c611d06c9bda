// Package netconn implements the public API surface: Connection, the
// single long-lived object applications construct and drive.
package netconn

import (
	"time"

	"go.uber.org/zap"

	"github.com/orbital-games/netlobby/config"
	"github.com/orbital-games/netlobby/handshake"
	"github.com/orbital-games/netlobby/metrics"
	"github.com/orbital-games/netlobby/netstatus"
	"github.com/orbital-games/netlobby/relay"
	"github.com/orbital-games/netlobby/transport"
	"github.com/orbital-games/netlobby/wire"
	"github.com/orbital-games/netlobby/wire/payload"
	"github.com/orbital-games/netlobby/wire/protocol"
)

// Role selects which handshake trajectory a Connection drives.
type Role uint8

// The two roles a Connection may be constructed with.
const (
	RoleHost Role = iota
	RoleClient
)

// Connection is the single object an application constructs and drives: a
// broadcast-messaging abstraction over an ad-hoc star topology with
// NAT-assisted connection setup.
type Connection struct {
	role Role
	t    transport.Transport
	log  *zap.Logger

	host   *handshake.Host
	client *handshake.Client
}

// New constructs a host Connection. serverAddr addresses the punchthrough
// rendezvous server.
func New(cfg config.ConnectionConfig, t transport.Transport, serverAddr transport.PeerAddress, log *zap.Logger) (*Connection, error) {
	if log == nil {
		log = zap.NewNop()
	}
	metrics.Enable(cfg.Metrics.Enabled)
	h := handshake.NewHost(cfg, t, serverAddr, log)
	if err := h.Start(); err != nil {
		return nil, err
	}
	return &Connection{role: RoleHost, t: t, log: log, host: h}, nil
}

// NewClient constructs a client Connection that will attempt to join
// roomID via the punchthrough rendezvous server at serverAddr.
func NewClient(cfg config.ConnectionConfig, t transport.Transport, serverAddr transport.PeerAddress, roomID string, log *zap.Logger) (*Connection, error) {
	if log == nil {
		log = zap.NewNop()
	}
	metrics.Enable(cfg.Metrics.Enabled)
	c := handshake.NewClient(cfg, t, serverAddr, roomID, log)
	if err := c.Start(); err != nil {
		return nil, err
	}
	return &Connection{role: RoleClient, t: t, log: log, client: c}, nil
}

// Status returns the Connection's current observable state.
func (c *Connection) Status() netstatus.Status {
	if c.role == RoleHost {
		return c.host.Status()
	}
	return c.client.Status()
}

// PlayerID returns this Connection's assigned slot and true once known.
func (c *Connection) PlayerID() (uint8, bool) {
	if c.role == RoleHost {
		switch c.host.Status() {
		case netstatus.Pending, netstatus.Connected, netstatus.Reconnecting:
			return 0, true
		default:
			return 0, false
		}
	}
	return c.client.PlayerID()
}

// RoomID returns the room id: the host's server-allocated id, or the
// client's constructor-provided id.
func (c *Connection) RoomID() string {
	if c.role == RoleHost {
		return c.host.RoomID()
	}
	return c.client.RoomID()
}

// IsPlayerActive reports whether slot is currently an active member.
func (c *Connection) IsPlayerActive(slot uint8) bool {
	return c.core().IsActive(slot)
}

// NumPlayers returns the current number of active slots.
func (c *Connection) NumPlayers() uint8 {
	return c.core().NumPlayers()
}

// TotalPlayers returns the configured lobby capacity before StartGame is
// called, or the number of players present at the moment it was, frozen
// for the lifetime of the match even as players later disconnect.
func (c *Connection) TotalPlayers() uint8 {
	if c.role == RoleHost {
		return c.host.MaxPlayers()
	}
	return c.client.MaxPlayers()
}

func (c *Connection) core() *relay.Core {
	if c.role == RoleHost {
		return c.host.Core()
	}
	return c.client.Core()
}

// Send broadcasts data to every connected peer, including this Connection
// itself on the next Receive. It is a silent no-op if not Connected.
func (c *Connection) Send(data []byte) error {
	if c.Status() != netstatus.Connected {
		return nil
	}
	return c.core().Send(data)
}

// SendToHost sends data to the host only, never relayed. On a host
// Connection it is equivalent to local delivery. It is a silent no-op if
// not Connected.
func (c *Connection) SendToHost(data []byte) error {
	if c.Status() != netstatus.Connected {
		return nil
	}
	return c.core().SendToHost(data)
}

// StartGame is host-only: it freezes the lobby and broadcasts StartGame to
// every connected peer. It is a no-op on a client Connection.
func (c *Connection) StartGame() {
	if c.role != RoleHost {
		return
	}
	c.host.StartGame()
}

// ManualDisconnect places the Connection in the terminal Disconnected
// state and tears down every transport handle.
func (c *Connection) ManualDisconnect() {
	if c.role == RoleHost {
		c.host.ManualDisconnect()
		return
	}
	c.client.ManualDisconnect()
}

// Receive drains the transport, drives the handshake and relay layers, and
// invokes dispatch for every application payload observed this cycle
// (Standard and DirectToHost frames). It must be called periodically by
// the application (the "network tick").
func (c *Connection) Receive(dispatch func([]byte)) {
	now := time.Now()
	for _, pkt := range c.t.Poll() {
		if pkt.Kind != transport.ApplicationFrame {
			c.handleTransportEvent(pkt)
			continue
		}
		frame, err := wire.Decode(pkt.Payload, c.perspective())
		if err != nil {
			c.log.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		c.handleFrame(pkt.Peer, frame, dispatch)
	}
	if c.role == RoleClient {
		c.client.Tick(now)
	}
	for _, data := range c.core().DrainLocal() {
		dispatch(data)
	}
}

func (c *Connection) perspective() wire.Perspective {
	if c.role == RoleHost {
		return wire.AsHost
	}
	return wire.AsClient
}

func (c *Connection) handleTransportEvent(pkt transport.IncomingPacket) {
	if c.role == RoleHost {
		c.host.HandleTransportEvent(pkt)
		return
	}
	c.client.HandleTransportEvent(pkt)
}

func (c *Connection) handleFrame(peer transport.PeerHandle, frame wire.Frame, dispatch func([]byte)) {
	switch frame.Kind {
	case protocol.Standard:
		m := frame.Payload.(*payload.StandardMessage)
		if c.role == RoleHost {
			slot, ok := c.host.Core().SlotOf(peer)
			if !ok {
				return
			}
			dispatch(c.host.Core().HandleIncomingStandard(slot, m.Data))
			return
		}
		dispatch(m.Data)

	case protocol.DirectToHost:
		if c.role != RoleHost {
			return
		}
		dispatch(frame.Payload.(*payload.DirectToHostMessage).Data)

	default:
		if c.role == RoleHost {
			c.host.HandleFrame(peer, frame)
		} else {
			c.client.HandleFrame(frame)
		}
	}
}
