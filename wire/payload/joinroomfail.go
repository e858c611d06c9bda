package payload

import (
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// JoinRoomFailMessage is sent host->client when a join or reconnect
// request is refused.
type JoinRoomFailMessage struct {
	Reason protocol.ReasonCode
}

// NewJoinRoomFailMessage returns a JoinRoomFailMessage with the given
// reason.
func NewJoinRoomFailMessage(reason protocol.ReasonCode) *JoinRoomFailMessage {
	return &JoinRoomFailMessage{Reason: reason}
}

// DecodePayload implements Payload.
func (m *JoinRoomFailMessage) DecodePayload(r io.Reader) error {
	br := util.NewBinReader(r)
	m.Reason = protocol.ReasonCode(br.ReadByte())
	return br.Err
}

// EncodePayload implements Payload.
func (m *JoinRoomFailMessage) EncodePayload(w io.Writer) error {
	bw := util.NewBinWriter(w)
	bw.WriteByte(byte(m.Reason))
	return bw.Err
}

// Kind implements Payload.
func (m *JoinRoomFailMessage) Kind() protocol.PacketKind {
	return protocol.JoinRoomFail
}
