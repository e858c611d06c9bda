package payload

import (
	"io"

	"github.com/orbital-games/netlobby/wire/protocol"
	"github.com/orbital-games/netlobby/wire/util"
)

// StartGameMessage is broadcast host->all when the lobby freezes. It
// carries the player count at the moment of freezing, so every peer's
// total_players getter agrees with the host's.
type StartGameMessage struct {
	TotalPlayers uint8
}

// NewStartGameMessage returns a StartGameMessage reporting totalPlayers.
func NewStartGameMessage(totalPlayers uint8) *StartGameMessage {
	return &StartGameMessage{TotalPlayers: totalPlayers}
}

// DecodePayload implements Payload.
func (m *StartGameMessage) DecodePayload(r io.Reader) error {
	br := util.NewBinReader(r)
	m.TotalPlayers = br.ReadByte()
	return br.Err
}

// EncodePayload implements Payload.
func (m *StartGameMessage) EncodePayload(w io.Writer) error {
	bw := util.NewBinWriter(w)
	bw.WriteByte(m.TotalPlayers)
	return bw.Err
}

// Kind implements Payload.
func (m *StartGameMessage) Kind() protocol.PacketKind {
	return protocol.StartGame
}
