// Package protocol defines the application-level packet taxonomy layered
// on top of the underlying transport's own reserved packet kinds.
package protocol

// APIVersion identifies the application wire contract. Clients whose
// APIVersion does not match the host's are refused at the handshake layer.
type APIVersion uint8

// PacketKind enumerates the application-defined packet kinds, numbered from
// 0. Every Frame carries exactly one of these as its tag byte, which is the
// first byte of an ApplicationFrame packet's payload and so never shares a
// value space with the transport's own event kinds.
type PacketKind uint8

// The packet kinds defined by this protocol, per the on-wire payload table.
const (
	// Standard carries an application payload relayed to every peer.
	Standard PacketKind = iota
	// AssignedRoom is sent by the punchthrough server to a host, carrying
	// the 5-character room id.
	AssignedRoom
	// JoinRoom is sent client->host to request a slot, and host->client on
	// success.
	JoinRoom
	// JoinRoomFail is sent host->client when a join request is refused.
	JoinRoomFail
	// Reconnect carries the reconnection request (client->host) or reply
	// (host->client).
	Reconnect
	// PlayerJoined is broadcast host->others when a slot is (re)occupied.
	PlayerJoined
	// PlayerLeft is broadcast host->others when a slot's transport drops.
	PlayerLeft
	// StartGame is broadcast host->all when the lobby is frozen.
	StartGame
	// DirectToHost carries an application payload sent only to the host,
	// never relayed.
	DirectToHost
)

// String implements fmt.Stringer.
func (k PacketKind) String() string {
	switch k {
	case Standard:
		return "Standard"
	case AssignedRoom:
		return "AssignedRoom"
	case JoinRoom:
		return "JoinRoom"
	case JoinRoomFail:
		return "JoinRoomFail"
	case Reconnect:
		return "Reconnect"
	case PlayerJoined:
		return "PlayerJoined"
	case PlayerLeft:
		return "PlayerLeft"
	case StartGame:
		return "StartGame"
	case DirectToHost:
		return "DirectToHost"
	default:
		return "UnknownPacketKind"
	}
}

// ReasonCode is carried by a JoinRoomFail payload, explaining why a join or
// reconnect attempt was refused.
type ReasonCode uint8

// The reason codes a host may reply with.
const (
	// ReasonRoomFull means the lobby has reached its configured capacity.
	ReasonRoomFull ReasonCode = iota
	// ReasonAPIMismatch means the peer's APIVersion did not match the
	// host's.
	ReasonAPIMismatch
	// ReasonGameStarted means the match has started and the joining peer
	// has no reconnect-eligible slot.
	ReasonGameStarted
	// ReasonRejected means the peer's address is in the host's reject set
	// from an earlier refused attempt.
	ReasonRejected
)

// String implements fmt.Stringer.
func (r ReasonCode) String() string {
	switch r {
	case ReasonRoomFull:
		return "RoomFull"
	case ReasonAPIMismatch:
		return "ApiMismatch"
	case ReasonGameStarted:
		return "GameStarted"
	case ReasonRejected:
		return "Rejected"
	default:
		return "UnknownReason"
	}
}

// RoomIDLength is the fixed length, in bytes, of a room id on the wire.
const RoomIDLength = 5
