package payload

import (
	"fmt"
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// JoinRoomMessage is dual-shaped per the protocol table: client->host it
// carries the claimed room id, host->client on success it carries the
// assigned slot and lobby capacity. IsReply selects which shape Encode and
// Decode use.
type JoinRoomMessage struct {
	IsReply bool

	// Request fields (client -> host).
	APIVersion protocol.APIVersion
	RoomID     string

	// Reply fields (host -> client). APIVersion is reused on both shapes.
	AssignedSlot   uint8
	LobbyCapacity  uint8
}

// NewJoinRoomRequest returns a client->host join request.
func NewJoinRoomRequest(apiVersion protocol.APIVersion, roomID string) *JoinRoomMessage {
	return &JoinRoomMessage{APIVersion: apiVersion, RoomID: roomID}
}

// NewJoinRoomReply returns a host->client successful join reply.
func NewJoinRoomReply(apiVersion protocol.APIVersion, slot, lobbyCapacity uint8) *JoinRoomMessage {
	return &JoinRoomMessage{
		IsReply:       true,
		APIVersion:    apiVersion,
		AssignedSlot:  slot,
		LobbyCapacity: lobbyCapacity,
	}
}

const (
	joinRoomRequestLen = 1 + protocol.RoomIDLength
	joinRoomReplyLen   = 1 + 1 + 1
)

// DecodePayload implements Payload. The two shapes have distinct, fixed
// lengths (6 bytes for a request, 3 for a reply), so the shape is
// determined by how many bytes are available.
func (m *JoinRoomMessage) DecodePayload(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	switch len(data) {
	case joinRoomRequestLen:
		m.IsReply = false
		m.APIVersion = protocol.APIVersion(data[0])
		m.RoomID = string(data[1:])
		return nil
	case joinRoomReplyLen:
		m.IsReply = true
		m.APIVersion = protocol.APIVersion(data[0])
		m.AssignedSlot = data[1]
		m.LobbyCapacity = data[2]
		return nil
	default:
		return fmt.Errorf("wire/payload: JoinRoom payload has unexpected length %d", len(data))
	}
}

// EncodePayload implements Payload.
func (m *JoinRoomMessage) EncodePayload(w io.Writer) error {
	bw := util.NewBinWriter(w)
	bw.WriteByte(byte(m.APIVersion))
	if m.IsReply {
		bw.WriteByte(m.AssignedSlot)
		bw.WriteByte(m.LobbyCapacity)
		return bw.Err
	}
	if len(m.RoomID) != protocol.RoomIDLength {
		return fmt.Errorf("wire/payload: room id %q is not %d characters", m.RoomID, protocol.RoomIDLength)
	}
	bw.WriteBytes([]byte(m.RoomID))
	return bw.Err
}

// Kind implements Payload.
func (m *JoinRoomMessage) Kind() protocol.PacketKind {
	return protocol.JoinRoom
}
