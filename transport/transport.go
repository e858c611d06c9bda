// Package transport abstracts the underlying unreliable reliable-ordered
// datagram peer (an SLikeNet/RakNet-style NAT punchthrough client, or a
// WebSocket client to a relay server) behind the small capability set the
// handshake and relay layers need. Concrete backends live in subpackages
// (memtransport, wstransport); this package only defines the contract.
package transport

import (
	"errors"
	"fmt"
)

// PeerHandle identifies one connected remote peer. It is comparable and
// safe to use as a map key.
type PeerHandle struct {
	id   uint64
	addr PeerAddress
}

// NewPeerHandle returns a PeerHandle identifying a peer at addr with the
// backend-assigned connection id.
func NewPeerHandle(id uint64, addr PeerAddress) PeerHandle {
	return PeerHandle{id: id, addr: addr}
}

// ID returns the backend-assigned connection id.
func (h PeerHandle) ID() uint64 { return h.id }

// Addr returns the peer's address.
func (h PeerHandle) Addr() PeerAddress { return h.addr }

// String implements fmt.Stringer.
func (h PeerHandle) String() string {
	return fmt.Sprintf("peer#%d(%s)", h.id, h.addr)
}

// PeerAddress is an opaque remote address string (host:port, or a relay
// session id, depending on the backend).
type PeerAddress string

// Kind distinguishes the reserved transport-level packet kinds from
// application packets. Every application frame is surfaced under the single
// ApplicationFrame kind; its own tag byte (package protocol, numbered from
// 0) is the first byte of the packet's Payload.
type Kind uint8

// The transport-level event kinds every backend must be able to surface,
// per the Transport Adapter failure semantics.
const (
	ConnectionAccepted Kind = iota
	NatPunchthroughSucceeded
	ConnectionAttemptFailed
	NoFreeIncomingConnections
	ConnectionLost
	DisconnectionNotification
	NatTargetNotConnected
	NatTargetUnresponsive
	AlreadyConnected
	// InvalidPassword is reused by the handshake layer to signal an API
	// version mismatch rejected during the punchthrough password check.
	InvalidPassword
	// ApplicationFrame wraps a decoded application Frame (see package
	// wire) once the handshake/relay layer is past the transport's own
	// connection bookkeeping.
	ApplicationFrame
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case ConnectionAccepted:
		return "ConnectionAccepted"
	case NatPunchthroughSucceeded:
		return "NatPunchthroughSucceeded"
	case ConnectionAttemptFailed:
		return "ConnectionAttemptFailed"
	case NoFreeIncomingConnections:
		return "NoFreeIncomingConnections"
	case ConnectionLost:
		return "ConnectionLost"
	case DisconnectionNotification:
		return "DisconnectionNotification"
	case NatTargetNotConnected:
		return "NatTargetNotConnected"
	case NatTargetUnresponsive:
		return "NatTargetUnresponsive"
	case AlreadyConnected:
		return "AlreadyConnected"
	case InvalidPassword:
		return "InvalidPassword"
	case ApplicationFrame:
		return "ApplicationFrame"
	default:
		return "UnknownTransportKind"
	}
}

// IncomingPacket is one event surfaced by Poll: either a transport-level
// event about peer (Kind != ApplicationFrame, Payload carries backend
// metadata) or an application frame (Kind == ApplicationFrame, Payload is
// the raw application tag byte + body, ready for wire.Decode).
type IncomingPacket struct {
	Peer    PeerHandle
	Kind    Kind
	Payload []byte
}

// Reliability selects the delivery guarantee for an outgoing send.
// Everything the application layer sends is reliable-ordered; only the
// punchthrough signaling exchanged directly with RequestPunch follows the
// transport's own semantics.
type Reliability uint8

// The two reliability classes a backend must support.
const (
	ReliableOrdered Reliability = iota
	PunchthroughSignal
)

// ErrNotConnected is returned by Send when dest is not a live peer; the
// caller should treat this as silent per the spec (the next Poll will
// surface the disconnection).
var ErrNotConnected = errors.New("transport: destination is not connected")

// ErrPunchthroughUnsupported is returned by RequestPunch on backends that
// have no NAT to traverse (e.g. a relay-server backend IS the rendezvous).
var ErrPunchthroughUnsupported = errors.New("transport: backend does not support punchthrough")

// Transport presents a uniform view of the underlying datagram peer: a
// stream of incoming packets addressed by PeerHandle, and outgoing sends
// addressed by destination.
type Transport interface {
	// Poll returns every packet that has arrived since the previous call,
	// in transport arrival order. It never blocks.
	Poll() []IncomingPacket

	// Send delivers payload to dest reliably. Failure is silent if dest
	// has already torn down; the next Poll will surface a
	// DisconnectionNotification or ConnectionLost instead.
	Send(dest PeerHandle, payload []byte) error

	// Broadcast sends payload to every connected peer except except (if
	// non-nil).
	Broadcast(payload []byte, except *PeerHandle)

	// Connect initiates a new direct connection to addr. Success appears
	// as a ConnectionAccepted packet in a later Poll.
	Connect(addr PeerAddress) error

	// Disconnect gracefully tears down the connection to handle.
	Disconnect(handle PeerHandle) error

	// RequestPunch asks the punchthrough rendezvous server at via to pair
	// this peer with the host of targetRoom. Coordination success appears
	// as a NatPunchthroughSucceeded packet in a later Poll on both peers.
	RequestPunch(via PeerAddress, targetRoom string) error
}
