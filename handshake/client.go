package handshake

import (
	"time"

	"go.uber.org/zap"

	"github.com/orbital-games/netlobby/config"
	"github.com/orbital-games/netlobby/metrics"
	"github.com/orbital-games/netlobby/netstatus"
	"github.com/orbital-games/netlobby/relay"
	"github.com/orbital-games/netlobby/slotset"
	"github.com/orbital-games/netlobby/transport"
	"github.com/orbital-games/netlobby/wire"
	"github.com/orbital-games/netlobby/wire/payload"
	"github.com/orbital-games/netlobby/wire/protocol"
)

// Client drives the client trajectory of spec §4.3: punch-server
// rendezvous, direct connect to the host, JoinRoom exchange, and the
// client-side reconnection trajectory on host loss.
type Client struct {
	cfg  config.ConnectionConfig
	t    transport.Transport
	core *relay.Core
	log  *zap.Logger

	status netstatus.Status

	serverAddr      transport.PeerAddress
	serverHandleSet bool

	roomID string

	playerID      *uint8
	lobbyCapacity uint8

	// maxPlayers mirrors the host's Host.maxPlayers: the configured lobby
	// capacity until the host's StartGame broadcast freezes it to the
	// player count at that instant.
	maxPlayers uint8

	// reconnecting is true once the client has lost its host at least
	// once; it selects whether the next direct-connect handshake sends a
	// JoinRoom or a Reconnect request.
	reconnecting          bool
	disconnectTime        time.Time
	lastReconnectAttempt  time.Time
	reconnectWindow       time.Duration
	reconnectRetryInterval time.Duration
}

// NewClient constructs a Client bound to cfg, transport t, serverAddr (the
// punchthrough rendezvous server), and roomID (immutable for the client's
// lifetime).
func NewClient(cfg config.ConnectionConfig, t transport.Transport, serverAddr transport.PeerAddress, roomID string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:                    cfg,
		t:                      t,
		core:                   relay.NewCore(relay.RoleClient, t, uint8(cfg.LobbyCapacity)),
		log:                    log.With(zap.String("module", "handshake"), zap.String("role", "client")),
		status:                 netstatus.Startup,
		serverAddr:             serverAddr,
		roomID:                 roomID,
		reconnectWindow:        cfg.ReconnectWindowOrDefault(),
		reconnectRetryInterval: cfg.ReconnectRetryIntervalOrDefault(),
	}
}

// Core returns the shared relay core.
func (c *Client) Core() *relay.Core { return c.core }

// Status returns the current handshake status.
func (c *Client) Status() netstatus.Status { return c.status }

// RoomID returns the room id this client was constructed with.
func (c *Client) RoomID() string { return c.roomID }

// MaxPlayers returns the configured lobby capacity before the host starts
// the game, or the player count frozen at the moment it did.
func (c *Client) MaxPlayers() uint8 { return c.maxPlayers }

// PlayerID returns the assigned slot and true once a JoinRoom or Reconnect
// reply has assigned one, and false before that. The slot is kept through
// any later Reconnecting or Disconnected status.
func (c *Client) PlayerID() (uint8, bool) {
	if c.playerID == nil {
		return 0, false
	}
	return *c.playerID, true
}

// Start issues the initial connection to the punchthrough server.
func (c *Client) Start() error {
	c.status = netstatus.PunchServerConnecting
	return c.t.Connect(c.serverAddr)
}

func (c *Client) setTerminal(s netstatus.Status) {
	if c.status.Terminal() {
		return
	}
	c.status = s
	metrics.IncHandshakeFailure(s.String())
}

// HandleTransportEvent processes a non-application transport packet.
func (c *Client) HandleTransportEvent(pkt transport.IncomingPacket) {
	switch pkt.Kind {
	case transport.ConnectionAccepted:
		if !c.serverHandleSet {
			c.serverHandleSet = true
			_ = c.t.RequestPunch(c.serverAddr, c.roomID)
			return
		}
		// Direct connection to the (prospective) host has completed.
		if c.reconnecting {
			slot, _ := c.PlayerID()
			_ = c.core.SendFrame(pkt.Peer, protocol.Reconnect, payload.NewReconnectRequestMessage(c.cfg.APIVersion, slot, c.roomID))
		} else {
			_ = c.core.SendFrame(pkt.Peer, protocol.JoinRoom, payload.NewJoinRoomRequest(c.cfg.APIVersion, c.roomID))
		}
		c.core.SetHost(pkt.Peer)
		c.status = netstatus.Pending

	case transport.NatPunchthroughSucceeded:
		if err := c.t.Connect(pkt.Peer.Addr()); err != nil {
			c.log.Warn("direct connect to host failed", zap.Error(err))
		}
		c.status = netstatus.Pending

	case transport.NatTargetNotConnected:
		c.setTerminal(netstatus.RoomNotFound)

	case transport.InvalidPassword:
		c.setTerminal(netstatus.ApiMismatch)

	case transport.ConnectionAttemptFailed, transport.NoFreeIncomingConnections, transport.AlreadyConnected, transport.NatTargetUnresponsive:
		c.setTerminal(netstatus.GenericError)

	case transport.DisconnectionNotification, transport.ConnectionLost:
		c.handleHostLost()

	default:
		c.log.Debug("unhandled client transport event", zap.Stringer("kind", pkt.Kind))
	}
}

// HandleFrame processes a decoded application frame received from the
// host.
func (c *Client) HandleFrame(frame wire.Frame) {
	switch m := frame.Payload.(type) {
	case *payload.JoinRoomMessage:
		if m.IsReply {
			c.applyJoinAccepted(m.AssignedSlot, m.LobbyCapacity)
		}
	case *payload.JoinRoomFailMessage:
		c.applyJoinRoomFail(m.Reason)
	case *payload.ReconnectReplyMessage:
		c.applyReconnectAccepted(m)
	case *payload.PlayerJoinedMessage:
		c.core.SetActive(m.Slot)
	case *payload.PlayerLeftMessage:
		c.core.ClearActive(m.Slot)
	case *payload.StartGameMessage:
		c.maxPlayers = m.TotalPlayers
	}
}

func (c *Client) applyJoinAccepted(slot, lobbyCapacity uint8) {
	c.playerID = &slot
	c.lobbyCapacity = lobbyCapacity
	c.maxPlayers = lobbyCapacity
	c.core.SetActive(0)
	c.core.SetLocalSlot(slot)
	c.status = netstatus.Connected
}

func (c *Client) applyJoinRoomFail(reason protocol.ReasonCode) {
	switch reason {
	case protocol.ReasonAPIMismatch:
		c.setTerminal(netstatus.ApiMismatch)
	case protocol.ReasonRejected:
		c.setTerminal(netstatus.Rejected)
	default:
		c.setTerminal(netstatus.GenericError)
	}
}

func (c *Client) applyReconnectAccepted(m *payload.ReconnectReplyMessage) {
	slot := m.Slot
	c.playerID = &slot
	c.lobbyCapacity = m.LobbyCapacity
	c.core.SetLocalSlot(slot)
	c.core.ReplaceActive(slotset.FromBitmap(m.ActiveSlots, m.LobbyCapacity))
	c.reconnecting = false
	c.status = netstatus.Connected
}

// handleHostLost implements spec §4.3 client step 9: transition to
// Reconnecting and begin the reconnection trajectory.
func (c *Client) handleHostLost() {
	if c.status.Terminal() {
		return
	}
	c.core.ClearHost()
	c.status = netstatus.Reconnecting
	c.reconnecting = true
	c.disconnectTime = time.Now()
	c.lastReconnectAttempt = time.Time{}
	c.serverHandleSet = false
}

// Tick drives the time-based reconnection retry loop; it must be called
// once per application receive cycle.
func (c *Client) Tick(now time.Time) {
	if c.status != netstatus.Reconnecting {
		return
	}
	if now.Sub(c.disconnectTime) >= c.reconnectWindow {
		c.status = netstatus.Disconnected
		return
	}
	if c.lastReconnectAttempt.IsZero() || now.Sub(c.lastReconnectAttempt) >= c.reconnectRetryInterval {
		c.lastReconnectAttempt = now
		metrics.IncReconnectAttempt()
		c.serverHandleSet = false
		if err := c.t.Connect(c.serverAddr); err != nil {
			c.log.Warn("reconnect attempt failed to dial punch server", zap.Error(err))
		}
	}
}

// ManualDisconnect tears down the host connection and transitions to
// Disconnected.
func (c *Client) ManualDisconnect() {
	if host, ok := c.core.HostHandle(); ok {
		_ = c.t.Disconnect(host)
	}
	c.status = netstatus.Disconnected
}
