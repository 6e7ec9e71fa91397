package envelope_test

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msl/internal/domain"
	"msl/internal/protocol/envelope"
)

func makeSessionKeys(t *testing.T) domain.SessionKeys {
	t.Helper()
	enc := make([]byte, 16)
	sig := make([]byte, 32)
	_, err := rand.Read(enc)
	require.NoError(t, err)
	_, err = rand.Read(sig)
	require.NoError(t, err)
	return domain.SessionKeys{EncryptionKey: enc, SigningKey: sig}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := envelope.New(makeSessionKeys(t), envelope.KeyID("ESN-1", 3))

	random := make([]byte, 1000)
	_, _ = rand.Read(random)

	for _, p := range [][]byte{
		{},
		[]byte("a"),
		bytes.Repeat([]byte{'x'}, 15),
		bytes.Repeat([]byte{'x'}, 16),
		bytes.Repeat([]byte{'x'}, 17),
		[]byte(`{"sender":"ESN-1","messageid":42}`),
		random,
	} {
		env, err := c.Encrypt(p)
		require.NoError(t, err)
		assert.Equal(t, "ESN-1_3", env.KeyID)
		assert.Equal(t, "AA==", env.SHA256)
		assert.Len(t, env.IV, 16)
		assert.Zero(t, len(env.Ciphertext)%16)

		got, err := c.Decrypt(env)
		require.NoError(t, err)
		assert.Equal(t, len(p), len(got))
		assert.True(t, bytes.Equal(p, got))
	}
}

func TestEncrypt_FreshIVEveryTime(t *testing.T) {
	c := envelope.New(makeSessionKeys(t), "k")
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		env, err := c.Encrypt([]byte("same plaintext"))
		require.NoError(t, err)
		require.False(t, seen[string(env.IV)], "IV reused")
		seen[string(env.IV)] = true
	}
}

func TestDecrypt_TruncatedCiphertext(t *testing.T) {
	c := envelope.New(makeSessionKeys(t), "k")
	env, err := c.Encrypt([]byte("hello world"))
	require.NoError(t, err)
	env.Ciphertext = env.Ciphertext[:len(env.Ciphertext)-1]

	_, err = c.Decrypt(env)
	assert.ErrorIs(t, err, domain.ErrDecryption)
}

func TestSignVerify_BitFlips(t *testing.T) {
	c := envelope.New(makeSessionKeys(t), "k")
	msg := []byte("header bytes")
	sig := c.Sign(msg)
	require.True(t, c.Verify(msg, sig))

	for i := 0; i < len(msg)*8; i++ {
		m := append([]byte(nil), msg...)
		m[i/8] ^= 1 << (i % 8)
		assert.False(t, c.Verify(m, sig), "message bit %d", i)
	}
	for i := 0; i < len(sig)*8; i++ {
		s := append([]byte(nil), sig...)
		s[i/8] ^= 1 << (i % 8)
		assert.False(t, c.Verify(msg, s), "signature bit %d", i)
	}
}

func TestSealOpen_RoundTripAndTamper(t *testing.T) {
	c := envelope.New(makeSessionKeys(t), "k")

	encoded, sig, err := c.Seal([]byte(`{"data":"x"}`))
	require.NoError(t, err)

	var env domain.Envelope
	require.NoError(t, json.Unmarshal(encoded, &env))

	got, err := c.Open(encoded, sig)
	require.NoError(t, err)
	assert.Equal(t, `{"data":"x"}`, string(got))

	tampered := append([]byte(nil), encoded...)
	tampered[len(tampered)/2] ^= 0x01
	_, err = c.Open(tampered, sig)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestOpen_OtherKeysFailIntegrity(t *testing.T) {
	a := envelope.New(makeSessionKeys(t), "k")
	b := envelope.New(makeSessionKeys(t), "k")

	encoded, sig, err := a.Seal([]byte("x"))
	require.NoError(t, err)
	_, err = b.Open(encoded, sig)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
}

func TestCompressDecompress(t *testing.T) {
	body := bytes.Repeat([]byte(`{"version":2}`), 50)
	z, err := envelope.Compress(body)
	require.NoError(t, err)
	assert.Less(t, len(z), len(body))

	got, err := envelope.Decompress(domain.CompressionGZIP, z)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	same, err := envelope.Decompress("", body)
	require.NoError(t, err)
	assert.Equal(t, body, same)

	_, err = envelope.Decompress(domain.CompressionGZIP, []byte("not gzip"))
	assert.ErrorIs(t, err, domain.ErrDecryption)

	_, err = envelope.Decompress("LZW", body)
	assert.ErrorIs(t, err, domain.ErrDecryption)
}
