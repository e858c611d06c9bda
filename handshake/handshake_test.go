package handshake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbital-games/netlobby/config"
	"github.com/orbital-games/netlobby/netstatus"
	"github.com/orbital-games/netlobby/transport"
	"github.com/orbital-games/netlobby/transport/memtransport"
	"github.com/orbital-games/netlobby/wire"
	"github.com/orbital-games/netlobby/wire/protocol"
)

const serverAddr transport.PeerAddress = "rendezvous:1"

func testConfig() config.ConnectionConfig {
	return config.ConnectionConfig{
		ServerHost:    "rendezvous",
		LobbyCapacity: 4,
		APIVersion:    protocol.APIVersion(1),
	}
}

// driveHostAndClient runs both state machines against a shared memtransport
// network until the client is Connected, returning both for further
// manipulation.
func driveHostAndClient(t *testing.T) (*memtransport.Network, *Host, *memtransport.Transport, *Client, *memtransport.Transport) {
	t.Helper()
	net := memtransport.NewNetwork(serverAddr)
	hostT := memtransport.NewTransport(net, "host")
	host := NewHost(testConfig(), hostT, serverAddr, nil)
	require.NoError(t, host.Start())

	for i := 0; i < 3; i++ {
		drainHost(host, hostT)
	}
	require.NotEmpty(t, host.RoomID())

	clientT := memtransport.NewTransport(net, "client")
	client := NewClient(testConfig(), clientT, serverAddr, host.RoomID(), nil)
	require.NoError(t, client.Start())

	for i := 0; i < 5; i++ {
		drainHost(host, hostT)
		drainClient(client, clientT)
	}
	require.Equal(t, netstatus.Connected, client.Status())
	return net, host, hostT, client, clientT
}

func drainHost(h *Host, t *memtransport.Transport) {
	for _, pkt := range t.Poll() {
		if pkt.Kind != transport.ApplicationFrame {
			h.HandleTransportEvent(pkt)
			continue
		}
		frame, err := wire.Decode(pkt.Payload, wire.AsHost)
		if err != nil {
			continue
		}
		h.HandleFrame(pkt.Peer, frame)
	}
}

func drainClient(c *Client, t *memtransport.Transport) {
	now := time.Now()
	for _, pkt := range t.Poll() {
		if pkt.Kind != transport.ApplicationFrame {
			c.HandleTransportEvent(pkt)
			continue
		}
		frame, err := wire.Decode(pkt.Payload, wire.AsClient)
		if err != nil {
			continue
		}
		c.HandleFrame(frame)
	}
	c.Tick(now)
}

func TestHostAssignsSlotZeroToItself(t *testing.T) {
	_, host, _, _, _ := driveHostAndClient(t)
	assert.True(t, host.Core().IsActive(0))
}

func TestClientReceivesLowestFreeSlot(t *testing.T) {
	_, _, _, client, _ := driveHostAndClient(t)
	slot, ok := client.PlayerID()
	require.True(t, ok)
	assert.Equal(t, uint8(1), slot)
}

func TestHandlePeerLostMarksReconnectEligibleOnlyAfterStart(t *testing.T) {
	_, host, _, client, _ := driveHostAndClient(t)
	slot, ok := client.PlayerID()
	require.True(t, ok)

	peerHandle, ok := host.Core().PeerSlots()[slot]
	require.True(t, ok)

	// Before StartGame, a lost peer's slot becomes fully free again.
	host.handlePeerLost(peerHandle)
	assert.False(t, host.Core().IsActive(slot))
	_, eligible := host.reconnectEligible[slot]
	assert.False(t, eligible)
}

func TestStartGameFreezesMaxPlayersSeparatelyFromLobbyCapacity(t *testing.T) {
	_, host, hostT, client, clientT := driveHostAndClient(t)

	// LobbyCapacity is 4 (testConfig) but only the host and one client
	// have joined when StartGame is called.
	assert.EqualValues(t, 4, host.MaxPlayers())

	host.StartGame()
	drainHost(host, hostT)
	drainClient(client, clientT)

	assert.EqualValues(t, 2, host.MaxPlayers())
	assert.EqualValues(t, 2, client.MaxPlayers())
}

func TestReconnectAfterStartRestoresSameSlot(t *testing.T) {
	_, host, hostT, client, clientT := driveHostAndClient(t)
	slot, ok := client.PlayerID()
	require.True(t, ok)

	host.StartGame()
	drainHost(host, hostT)

	peerHandle, ok := host.Core().PeerSlots()[slot]
	require.True(t, ok)
	// Tear down the transport-level connection, not just the relay/
	// handshake bookkeeping, so the client discovers the loss the same way
	// it would against a real backend: via a DisconnectionNotification.
	require.NoError(t, hostT.Disconnect(peerHandle))
	host.handlePeerLost(peerHandle)

	assert.False(t, host.Core().IsActive(slot))
	_, eligible := host.reconnectEligible[slot]
	assert.True(t, eligible)

	drainClient(client, clientT)
	assert.Equal(t, netstatus.Reconnecting, client.Status())
	assert.True(t, client.reconnecting)

	for i := 0; i < 8; i++ {
		drainHost(host, hostT)
		drainClient(client, clientT)
	}

	assert.Equal(t, netstatus.Connected, client.Status())
	restoredSlot, ok := client.PlayerID()
	require.True(t, ok)
	assert.Equal(t, slot, restoredSlot)
	assert.True(t, host.Core().IsActive(slot))
}

func TestReconnectWindowExpiryDisconnects(t *testing.T) {
	_, _, _, client, _ := driveHostAndClient(t)
	client.reconnectWindow = 10 * time.Millisecond
	client.handleHostLost()

	client.Tick(client.disconnectTime.Add(20 * time.Millisecond))

	assert.Equal(t, netstatus.Disconnected, client.Status())
}

func TestRejectedAddressIsRefusedOnRetry(t *testing.T) {
	net := memtransport.NewNetwork(serverAddr)
	hostT := memtransport.NewTransport(net, "host")
	host := NewHost(testConfig(), hostT, serverAddr, nil)
	require.NoError(t, host.Start())
	for i := 0; i < 3; i++ {
		drainHost(host, hostT)
	}

	badT := memtransport.NewTransport(net, "bad")
	mismatchedCfg := testConfig()
	mismatchedCfg.APIVersion = protocol.APIVersion(99)
	bad := NewClient(mismatchedCfg, badT, serverAddr, host.RoomID(), nil)
	require.NoError(t, bad.Start())
	for i := 0; i < 5; i++ {
		drainHost(host, hostT)
		drainClient(bad, badT)
	}
	require.Equal(t, netstatus.ApiMismatch, bad.Status())

	// Same address retries with a matching API version; the host's
	// reject set refuses it before any other check runs.
	retryT := memtransport.NewTransport(net, "bad")
	retry := NewClient(testConfig(), retryT, serverAddr, host.RoomID(), nil)
	require.NoError(t, retry.Start())
	for i := 0; i < 5; i++ {
		drainHost(host, hostT)
		drainClient(retry, retryT)
	}

	assert.Equal(t, netstatus.Rejected, retry.Status())
	assert.EqualValues(t, 1, host.Core().NumPlayers())
}

func TestCapacityRejectionSendsRoomFull(t *testing.T) {
	net := memtransport.NewNetwork(serverAddr)
	hostT := memtransport.NewTransport(net, "host")
	cfg := testConfig()
	cfg.LobbyCapacity = 2
	host := NewHost(cfg, hostT, serverAddr, nil)
	require.NoError(t, host.Start())
	for i := 0; i < 3; i++ {
		drainHost(host, hostT)
	}

	firstT := memtransport.NewTransport(net, "first")
	first := NewClient(cfg, firstT, serverAddr, host.RoomID(), nil)
	require.NoError(t, first.Start())
	for i := 0; i < 5; i++ {
		drainHost(host, hostT)
		drainClient(first, firstT)
	}
	require.Equal(t, netstatus.Connected, first.Status())

	secondT := memtransport.NewTransport(net, "second")
	second := NewClient(cfg, secondT, serverAddr, host.RoomID(), nil)
	require.NoError(t, second.Start())
	for i := 0; i < 5; i++ {
		drainHost(host, hostT)
		drainClient(second, secondT)
	}

	assert.Equal(t, netstatus.GenericError, second.Status())
}
