package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// BlockSize is the AES block size used for padding and IVs.
const BlockSize = aes.BlockSize

var (
	ErrPadding    = errors.New("crypto: bad padding")
	ErrCiphertext = errors.New("crypto: ciphertext is not a whole number of blocks")
	errIVLength   = fmt.Errorf("crypto: iv must be %d bytes", BlockSize)
)

// Pad appends PKCS#7 padding up to a multiple of size.
func Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// Unpad strips and checks PKCS#7 padding.
func Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrPadding
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrPadding
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrPadding
		}
	}
	return b[:len(b)-n], nil
}

// EncryptCBC pads plaintext and encrypts it under key with iv.
func EncryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	if len(iv) != BlockSize {
		return nil, errIVLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	buf := Pad(plaintext, BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	return buf, nil
}

// DecryptCBC decrypts and unpads ciphertext. The input is left untouched.
func DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	if len(iv) != BlockSize {
		return nil, errIVLength
	}
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, ErrCiphertext
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, ciphertext)
	return Unpad(buf, BlockSize)
}
