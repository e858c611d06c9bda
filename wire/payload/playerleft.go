package payload

import (
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// PlayerLeftMessage is broadcast host->others whenever a slot's transport
// drops.
type PlayerLeftMessage struct {
	Slot uint8
}

// NewPlayerLeftMessage returns a PlayerLeftMessage for slot.
func NewPlayerLeftMessage(slot uint8) *PlayerLeftMessage {
	return &PlayerLeftMessage{Slot: slot}
}

// DecodePayload implements Payload.
func (m *PlayerLeftMessage) DecodePayload(r io.Reader) error {
	br := util.NewBinReader(r)
	m.Slot = br.ReadByte()
	return br.Err
}

// EncodePayload implements Payload.
func (m *PlayerLeftMessage) EncodePayload(w io.Writer) error {
	bw := util.NewBinWriter(w)
	bw.WriteByte(m.Slot)
	return bw.Err
}

// Kind implements Payload.
func (m *PlayerLeftMessage) Kind() protocol.PacketKind {
	return protocol.PlayerLeft
}
