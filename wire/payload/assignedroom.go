package payload

import (
	"fmt"
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// AssignedRoomMessage is sent by the punchthrough server to a host,
// carrying the 5-character ASCII room id it has allocated.
type AssignedRoomMessage struct {
	RoomID string
}

// NewAssignedRoomMessage returns an AssignedRoomMessage for roomID.
func NewAssignedRoomMessage(roomID string) *AssignedRoomMessage {
	return &AssignedRoomMessage{RoomID: roomID}
}

// DecodePayload implements Payload.
func (m *AssignedRoomMessage) DecodePayload(r io.Reader) error {
	br := util.NewBinReader(r)
	b := br.ReadBytes(protocol.RoomIDLength)
	if br.Err != nil {
		return br.Err
	}
	m.RoomID = string(b)
	return nil
}

// EncodePayload implements Payload.
func (m *AssignedRoomMessage) EncodePayload(w io.Writer) error {
	if len(m.RoomID) != protocol.RoomIDLength {
		return fmt.Errorf("wire/payload: room id %q is not %d characters", m.RoomID, protocol.RoomIDLength)
	}
	bw := util.NewBinWriter(w)
	bw.WriteBytes([]byte(m.RoomID))
	return bw.Err
}

// Kind implements Payload.
func (m *AssignedRoomMessage) Kind() protocol.PacketKind {
	return protocol.AssignedRoom
}
