package payload

import (
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// DirectToHostMessage carries an opaque application byte payload sent by a
// client straight to the host; the host dispatches it locally and never
// relays it.
type DirectToHostMessage struct {
	Data []byte
}

// NewDirectToHostMessage returns a DirectToHostMessage wrapping data.
func NewDirectToHostMessage(data []byte) *DirectToHostMessage {
	return &DirectToHostMessage{Data: data}
}

// DecodePayload implements Payload.
func (m *DirectToHostMessage) DecodePayload(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.Data = data
	return nil
}

// EncodePayload implements Payload.
func (m *DirectToHostMessage) EncodePayload(w io.Writer) error {
	bw := util.NewBinWriter(w)
	bw.WriteBytes(m.Data)
	return bw.Err
}

// Kind implements Payload.
func (m *DirectToHostMessage) Kind() protocol.PacketKind {
	return protocol.DirectToHost
}
