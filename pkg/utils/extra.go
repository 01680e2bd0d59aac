package utils

import (
	"crypto/rand"
	"math/big"
)

const roomPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRoomPassword returns a random password of length characters
// drawn from an alphabet without look-alike glyphs.
func GenerateRoomPassword(length int) (string, error) {
	size := big.NewInt(int64(len(roomPasswordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		out[i] = roomPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}
