package envelope

import (
	"fmt"

	"msl/internal/crypto"
	"msl/internal/domain"
)

// Compress GZIPs a payload body.
func Compress(b []byte) ([]byte, error) { return crypto.Gzip(b) }

// Decompress undoes Compress when algo is GZIP and passes data through for
// NONE or an absent algorithm.
func Decompress(algo string, b []byte) ([]byte, error) {
	switch algo {
	case "", domain.CompressionNone:
		return b, nil
	case domain.CompressionGZIP:
		out, err := crypto.Gunzip(b)
		if err != nil {
			return nil, fmt.Errorf("%w: gunzip: %v", domain.ErrDecryption, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression %q", domain.ErrDecryption, algo)
	}
}
