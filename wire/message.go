// Package wire implements the frame codec: the single application tag byte
// that precedes every payload on an established connection, plus encoding
// and decoding of that tag against the payload types in package payload.
package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/orbital-games/netlobby/wire/payload"
	"github.com/orbital-games/netlobby/wire/protocol"
)

// Frame is a decoded application packet: a kind and its payload. It is
// created on every send and discarded after dispatch.
type Frame struct {
	Kind    protocol.PacketKind
	Payload payload.Payload
}

// Perspective disambiguates packet kinds whose wire shape depends on which
// role is receiving them. Only Reconnect needs this: a host only ever
// receives reconnect *requests*, a client only ever receives reconnect
// *replies*, so the two shapes never need to self-describe on the wire.
type Perspective uint8

// The two perspectives a Decode call can be made from.
const (
	AsHost Perspective = iota
	AsClient
)

// Encode writes kind's tag byte followed by p's encoded payload to w.
func Encode(w io.Writer, kind protocol.PacketKind, p payload.Payload) error {
	if _, err := w.Write([]byte{byte(kind)}); err != nil {
		return err
	}
	return p.EncodePayload(w)
}

// Decode reads a single application tag byte from data followed by its
// payload, and returns the resulting Frame. data must contain exactly one
// frame (the transport already delivers one packet per call); the
// transport's own reserved tag byte, if any, must already have been
// stripped by the caller.
func Decode(data []byte, from Perspective) (Frame, error) {
	if len(data) < 1 {
		return Frame{}, fmt.Errorf("wire: empty frame")
	}
	kind := protocol.PacketKind(data[0])
	body := data[1:]

	p, err := newPayload(kind, from)
	if err != nil {
		return Frame{}, err
	}
	if err := p.DecodePayload(bytes.NewReader(body)); err != nil {
		return Frame{}, fmt.Errorf("wire: decoding %s payload: %w", kind, err)
	}
	return Frame{Kind: kind, Payload: p}, nil
}

// newPayload constructs the zero-value payload.Payload for kind, resolving
// the Reconnect ambiguity using from.
func newPayload(kind protocol.PacketKind, from Perspective) (payload.Payload, error) {
	switch kind {
	case protocol.Standard:
		return &payload.StandardMessage{}, nil
	case protocol.AssignedRoom:
		return &payload.AssignedRoomMessage{}, nil
	case protocol.JoinRoom:
		return &payload.JoinRoomMessage{}, nil
	case protocol.JoinRoomFail:
		return &payload.JoinRoomFailMessage{}, nil
	case protocol.Reconnect:
		if from == AsHost {
			return &payload.ReconnectRequestMessage{}, nil
		}
		return &payload.ReconnectReplyMessage{}, nil
	case protocol.PlayerJoined:
		return &payload.PlayerJoinedMessage{}, nil
	case protocol.PlayerLeft:
		return &payload.PlayerLeftMessage{}, nil
	case protocol.StartGame:
		return &payload.StartGameMessage{}, nil
	case protocol.DirectToHost:
		return &payload.DirectToHostMessage{}, nil
	default:
		return nil, fmt.Errorf("wire: unknown packet kind %d", kind)
	}
}
