package payload

import (
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// PlayerJoinedMessage is broadcast host->others whenever a slot becomes
// occupied, whether by a fresh join or a reconnect.
type PlayerJoinedMessage struct {
	Slot uint8
}

// NewPlayerJoinedMessage returns a PlayerJoinedMessage for slot.
func NewPlayerJoinedMessage(slot uint8) *PlayerJoinedMessage {
	return &PlayerJoinedMessage{Slot: slot}
}

// DecodePayload implements Payload.
func (m *PlayerJoinedMessage) DecodePayload(r io.Reader) error {
	br := util.NewBinReader(r)
	m.Slot = br.ReadByte()
	return br.Err
}

// EncodePayload implements Payload.
func (m *PlayerJoinedMessage) EncodePayload(w io.Writer) error {
	bw := util.NewBinWriter(w)
	bw.WriteByte(m.Slot)
	return bw.Err
}

// Kind implements Payload.
func (m *PlayerJoinedMessage) Kind() protocol.PacketKind {
	return protocol.PlayerJoined
}
