package netconn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbital-games/netlobby/config"
	"github.com/orbital-games/netlobby/netstatus"
	"github.com/orbital-games/netlobby/transport"
	"github.com/orbital-games/netlobby/transport/memtransport"
	"github.com/orbital-games/netlobby/wire/protocol"
)

const serverAddr transport.PeerAddress = "rendezvous:7777"

func testConfig(capacity uint32) config.ConnectionConfig {
	return config.ConnectionConfig{
		ServerHost:    "rendezvous",
		ServerPort:    7777,
		LobbyCapacity: capacity,
		APIVersion:    protocol.APIVersion(1),
	}
}

// pump drives every Connection's Receive in round-robin for n ticks,
// collecting whatever each dispatches.
func pump(t *testing.T, n int, conns ...*Connection) map[*Connection][][]byte {
	t.Helper()
	out := make(map[*Connection][][]byte, len(conns))
	for i := 0; i < n; i++ {
		for _, c := range conns {
			c.Receive(func(data []byte) {
				out[c] = append(out[c], append([]byte(nil), data...))
			})
		}
	}
	return out
}

func newHostAndClient(t *testing.T, capacity uint32) (*memtransport.Network, *Connection, *Connection) {
	t.Helper()
	net := memtransport.NewNetwork(serverAddr)
	hostTransport := memtransport.NewTransport(net, "host")
	clientTransport := memtransport.NewTransport(net, "client")

	host, err := New(testConfig(capacity), hostTransport, serverAddr, nil)
	require.NoError(t, err)

	pump(t, 3, host)
	require.NotEmpty(t, host.RoomID())

	client, err := NewClient(testConfig(capacity), clientTransport, serverAddr, host.RoomID(), nil)
	require.NoError(t, err)

	pump(t, 5, host, client)
	return net, host, client
}

func TestTwoPlayerHappyPath(t *testing.T) {
	_, host, client := newHostAndClient(t, 4)

	assert.Equal(t, netstatus.Connected, host.Status())
	assert.Equal(t, netstatus.Connected, client.Status())

	hostSlot, ok := host.PlayerID()
	require.True(t, ok)
	assert.Equal(t, uint8(0), hostSlot)

	clientSlot, ok := client.PlayerID()
	require.True(t, ok)
	assert.Equal(t, uint8(1), clientSlot)

	assert.True(t, host.IsPlayerActive(1))
	assert.True(t, client.IsPlayerActive(1))
	assert.EqualValues(t, 2, host.NumPlayers())
}

func TestAPIMismatchIsRejected(t *testing.T) {
	net := memtransport.NewNetwork(serverAddr)
	hostTransport := memtransport.NewTransport(net, "host")
	clientTransport := memtransport.NewTransport(net, "client")

	host, err := New(testConfig(4), hostTransport, serverAddr, nil)
	require.NoError(t, err)
	pump(t, 3, host)
	require.NotEmpty(t, host.RoomID())

	mismatchedCfg := testConfig(4)
	mismatchedCfg.APIVersion = protocol.APIVersion(99)
	client, err := NewClient(mismatchedCfg, clientTransport, serverAddr, host.RoomID(), nil)
	require.NoError(t, err)

	pump(t, 5, host, client)

	assert.Equal(t, netstatus.ApiMismatch, client.Status())
	assert.EqualValues(t, 1, host.NumPlayers())
}

func TestRoomNotFoundTerminatesClient(t *testing.T) {
	net := memtransport.NewNetwork(serverAddr)
	clientTransport := memtransport.NewTransport(net, "client")

	client, err := NewClient(testConfig(4), clientTransport, serverAddr, "ZZZZZ", nil)
	require.NoError(t, err)

	pump(t, 5, client)

	assert.Equal(t, netstatus.RoomNotFound, client.Status())
}

func TestBroadcastEchoesToSenderOnNextReceive(t *testing.T) {
	_, host, client := newHostAndClient(t, 4)

	require.NoError(t, client.Send([]byte("gg")))
	results := pump(t, 3, host, client)

	assert.Contains(t, results[host], []byte("gg"))
	assert.Contains(t, results[client], []byte("gg"))
}

func TestDirectToHostIsNotRelayed(t *testing.T) {
	_, host, client := newHostAndClient(t, 4)

	require.NoError(t, client.SendToHost([]byte("secret")))
	results := pump(t, 3, host, client)

	assert.Contains(t, results[host], []byte("secret"))
	assert.NotContains(t, results[client], []byte("secret"))
}

func TestCapacityEnforcement(t *testing.T) {
	net := memtransport.NewNetwork(serverAddr)
	hostTransport := memtransport.NewTransport(net, "host")
	host, err := New(testConfig(2), hostTransport, serverAddr, nil)
	require.NoError(t, err)
	pump(t, 3, host)

	firstTransport := memtransport.NewTransport(net, "first")
	first, err := NewClient(testConfig(2), firstTransport, serverAddr, host.RoomID(), nil)
	require.NoError(t, err)
	pump(t, 5, host, first)
	assert.Equal(t, netstatus.Connected, first.Status())

	secondTransport := memtransport.NewTransport(net, "second")
	second, err := NewClient(testConfig(2), secondTransport, serverAddr, host.RoomID(), nil)
	require.NoError(t, err)
	pump(t, 5, host, first, second)

	assert.Equal(t, netstatus.GenericError, second.Status())
	assert.EqualValues(t, 2, host.NumPlayers())
}

func TestStartGameGatesFreshJoins(t *testing.T) {
	net := memtransport.NewNetwork(serverAddr)
	hostTransport := memtransport.NewTransport(net, "host")
	host, err := New(testConfig(4), hostTransport, serverAddr, nil)
	require.NoError(t, err)
	pump(t, 3, host)

	host.StartGame()
	pump(t, 1, host)

	lateTransport := memtransport.NewTransport(net, "late")
	late, err := NewClient(testConfig(4), lateTransport, serverAddr, host.RoomID(), nil)
	require.NoError(t, err)
	pump(t, 5, host, late)

	assert.Equal(t, netstatus.GenericError, late.Status())
}

func TestTotalPlayersFreezesAtStartGameAndSurvivesLaterDisconnects(t *testing.T) {
	_, host, client := newHostAndClient(t, 4)

	// Capacity is 4 but only the host and one client have joined.
	assert.EqualValues(t, 4, host.TotalPlayers())

	host.StartGame()
	pump(t, 3, host, client)

	assert.EqualValues(t, 2, host.TotalPlayers())
	assert.EqualValues(t, 2, client.TotalPlayers())

	client.ManualDisconnect()
	pump(t, 2, host)

	assert.EqualValues(t, 1, host.NumPlayers())
	assert.EqualValues(t, 2, host.TotalPlayers())
}

func TestHostFreesSlotOnClientDisconnect(t *testing.T) {
	_, host, client := newHostAndClient(t, 4)

	clientSlot, ok := client.PlayerID()
	require.True(t, ok)
	require.True(t, host.IsPlayerActive(clientSlot))

	client.ManualDisconnect()
	pump(t, 2, host)

	assert.False(t, host.IsPlayerActive(clientSlot))
	assert.EqualValues(t, 1, host.NumPlayers())
}
