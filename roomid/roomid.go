// Package roomid generates and validates the 5-character ASCII room ids
// issued by the punchthrough server.
package roomid

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/orbital-games/netlobby/wire/protocol"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func init() {
	//nolint:staticcheck
	rand.Seed(time.Now().UTC().UnixNano())
}

// Generate returns a random upper-case alphanumeric room id of the wire's
// fixed length. Only the punchthrough server is specified to call this in
// production; it is exported for use by test doubles that stand in for it.
func Generate() string {
	b := make([]byte, protocol.RoomIDLength)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// Valid reports whether s is a well-formed room id: the fixed wire length,
// upper-case alphanumeric.
func Valid(s string) bool {
	if len(s) != protocol.RoomIDLength {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// Parse validates s and returns it unchanged, or an error describing why
// it is not a valid room id.
func Parse(s string) (string, error) {
	if !Valid(s) {
		return "", fmt.Errorf("roomid: %q is not a valid %d-character upper-case alphanumeric room id", s, protocol.RoomIDLength)
	}
	return s, nil
}
