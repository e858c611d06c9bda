// Package payload defines the on-wire payload for every application packet
// kind in package protocol.
package payload

import (
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
)

// Payload is implemented by every packet kind's payload struct.
type Payload interface {
	// Kind returns the packet kind this payload is carried under.
	Kind() protocol.PacketKind
	// EncodePayload writes the payload body (not including the tag byte)
	// to w.
	EncodePayload(w io.Writer) error
	// DecodePayload reads the payload body (not including the tag byte)
	// from r.
	DecodePayload(r io.Reader) error
}
