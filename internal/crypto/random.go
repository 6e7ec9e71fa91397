package crypto

import (
	"crypto/rand"
	"math/big"
)

// maxMessageID bounds message ids to 2^52, the range the server accepts.
var maxMessageID = new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 52), big.NewInt(1))

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MessageID draws a uniformly random id in [0, 2^52].
func MessageID() (int64, error) {
	n, err := rand.Int(rand.Reader, maxMessageID)
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}
