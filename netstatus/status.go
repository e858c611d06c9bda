// Package netstatus defines the Connection's observable lifecycle states.
package netstatus

// Status is the full internal state set of a Connection. The externally
// documented subset (Disconnected, Pending, Connected, Reconnecting,
// RoomNotFound, ApiMismatch, GenericError) omits the transient pre-Connected
// states and the Rejected terminal state, which are implementation detail
// but still need names for the handshake state machine to reference.
type Status uint8

// The full set of statuses a Connection may be in.
const (
	// Startup is the initial state before anything has been dialed.
	Startup Status = iota
	// PunchServerConnecting covers both roles' dealings with the
	// punchthrough rendezvous server, prior to a direct peer connection.
	PunchServerConnecting
	// Pending means a direct connection attempt to the peer (host or
	// client) is underway but not yet confirmed by the application
	// handshake.
	Pending
	// Connected means the handshake has completed successfully.
	Connected
	// Reconnecting means a previously Connected client lost its host and
	// is retrying within the reconnect window.
	Reconnecting
	// Disconnected is terminal: manual teardown, or reconnect deadline
	// exceeded.
	Disconnected
	// RoomNotFound is terminal: the room id is unknown to the
	// punchthrough server, or the host is not actually listening.
	RoomNotFound
	// ApiMismatch is terminal: the peer's API version did not match.
	ApiMismatch
	// GenericError is terminal: any other unrecoverable failure (lobby
	// full, game already started with no reconnect slot, transport
	// failure).
	GenericError
	// Rejected is terminal: the host refused this peer's JoinRoom because
	// its address is in the host's reject set.
	Rejected
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Startup:
		return "Startup"
	case PunchServerConnecting:
		return "PunchServerConnecting"
	case Pending:
		return "Pending"
	case Connected:
		return "Connected"
	case Reconnecting:
		return "Reconnecting"
	case Disconnected:
		return "Disconnected"
	case RoomNotFound:
		return "RoomNotFound"
	case ApiMismatch:
		return "ApiMismatch"
	case GenericError:
		return "GenericError"
	case Rejected:
		return "Rejected"
	default:
		return "UnknownStatus"
	}
}

// Terminal reports whether s is an absorbing state: once reached, it
// never changes for the lifetime of the Connection.
func (s Status) Terminal() bool {
	switch s {
	case Disconnected, RoomNotFound, ApiMismatch, GenericError, Rejected:
		return true
	default:
		return false
	}
}
