package payload

import (
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// StandardMessage carries an opaque application byte payload, relayed by
// the host to every other connected slot.
type StandardMessage struct {
	Data []byte
}

// NewStandardMessage returns a StandardMessage wrapping data.
func NewStandardMessage(data []byte) *StandardMessage {
	return &StandardMessage{Data: data}
}

// DecodePayload implements Payload. Standard payloads carry no length
// prefix: the frame boundary is the transport's own datagram boundary, so
// the remainder of the reader is the message.
func (m *StandardMessage) DecodePayload(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.Data = data
	return nil
}

// EncodePayload implements Payload.
func (m *StandardMessage) EncodePayload(w io.Writer) error {
	bw := util.NewBinWriter(w)
	bw.WriteBytes(m.Data)
	return bw.Err
}

// Kind implements Payload.
func (m *StandardMessage) Kind() protocol.PacketKind {
	return protocol.Standard
}
