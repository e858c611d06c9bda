package payload

import (
	"fmt"
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// ReconnectRequestMessage is sent client->host to ask for a previously
// held slot back.
type ReconnectRequestMessage struct {
	APIVersion protocol.APIVersion
	Slot       uint8
	RoomID     string
}

// NewReconnectRequestMessage returns a ReconnectRequestMessage.
func NewReconnectRequestMessage(apiVersion protocol.APIVersion, slot uint8, roomID string) *ReconnectRequestMessage {
	return &ReconnectRequestMessage{APIVersion: apiVersion, Slot: slot, RoomID: roomID}
}

// DecodePayload implements Payload.
func (m *ReconnectRequestMessage) DecodePayload(r io.Reader) error {
	br := util.NewBinReader(r)
	m.APIVersion = protocol.APIVersion(br.ReadByte())
	m.Slot = br.ReadByte()
	roomID := br.ReadBytes(protocol.RoomIDLength)
	if br.Err != nil {
		return br.Err
	}
	m.RoomID = string(roomID)
	return nil
}

// EncodePayload implements Payload.
func (m *ReconnectRequestMessage) EncodePayload(w io.Writer) error {
	if len(m.RoomID) != protocol.RoomIDLength {
		return fmt.Errorf("wire/payload: room id %q is not %d characters", m.RoomID, protocol.RoomIDLength)
	}
	bw := util.NewBinWriter(w)
	bw.WriteByte(byte(m.APIVersion))
	bw.WriteByte(m.Slot)
	bw.WriteBytes([]byte(m.RoomID))
	return bw.Err
}

// Kind implements Payload.
func (m *ReconnectRequestMessage) Kind() protocol.PacketKind {
	return protocol.Reconnect
}

// ReconnectReplyMessage is sent host->client confirming a reconnection,
// carrying the bitmap of every currently active slot so the rejoining
// client can rebuild its membership view.
type ReconnectReplyMessage struct {
	APIVersion    protocol.APIVersion
	Slot          uint8
	LobbyCapacity uint8
	ActiveSlots   []byte // ceil(LobbyCapacity/8) bytes, slot i is bit (i % 8) of byte (i / 8).
}

// NewReconnectReplyMessage returns a ReconnectReplyMessage.
func NewReconnectReplyMessage(apiVersion protocol.APIVersion, slot, lobbyCapacity uint8, activeSlots []byte) *ReconnectReplyMessage {
	return &ReconnectReplyMessage{
		APIVersion:    apiVersion,
		Slot:          slot,
		LobbyCapacity: lobbyCapacity,
		ActiveSlots:   activeSlots,
	}
}

// bitmapLen returns ceil(lobbyCapacity/8).
func bitmapLen(lobbyCapacity uint8) int {
	return (int(lobbyCapacity) + 7) / 8
}

// DecodePayload implements Payload.
func (m *ReconnectReplyMessage) DecodePayload(r io.Reader) error {
	br := util.NewBinReader(r)
	m.APIVersion = protocol.APIVersion(br.ReadByte())
	m.Slot = br.ReadByte()
	m.LobbyCapacity = br.ReadByte()
	if br.Err != nil {
		return br.Err
	}
	m.ActiveSlots = br.ReadBytes(bitmapLen(m.LobbyCapacity))
	return br.Err
}

// EncodePayload implements Payload.
func (m *ReconnectReplyMessage) EncodePayload(w io.Writer) error {
	want := bitmapLen(m.LobbyCapacity)
	if len(m.ActiveSlots) != want {
		return fmt.Errorf("wire/payload: active slot bitmap has %d bytes, want %d for capacity %d", len(m.ActiveSlots), want, m.LobbyCapacity)
	}
	bw := util.NewBinWriter(w)
	bw.WriteByte(byte(m.APIVersion))
	bw.WriteByte(m.Slot)
	bw.WriteByte(m.LobbyCapacity)
	bw.WriteBytes(m.ActiveSlots)
	return bw.Err
}

// Kind implements Payload.
func (m *ReconnectReplyMessage) Kind() protocol.PacketKind {
	return protocol.Reconnect
}
