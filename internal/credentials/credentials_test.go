package credentials_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msl/internal/credentials"
	"msl/internal/domain"
)

func envOf(m map[string]string) credentials.Env {
	return credentials.Env{Getenv: func(k string) string { return m[k] }}
}

func TestEnv(t *testing.T) {
	ctx := context.Background()

	c, err := envOf(map[string]string{"MSL_EMAIL": "a@b.c", "MSL_PASSWORD": "pw"}).Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{Email: "a@b.c", Password: "pw"}, c)

	c, err = envOf(map[string]string{"MSL_NETFLIXID": "n", "MSL_SECURENETFLIXID": "s"}).Credentials(ctx)
	require.NoError(t, err)
	assert.True(t, c.HasNetflixID())

	_, err = envOf(map[string]string{"MSL_EMAIL": "a@b.c"}).Credentials(ctx)
	assert.ErrorIs(t, err, credentials.ErrNoCredentials)
}

func TestPrompt_NonTerminal(t *testing.T) {
	var out bytes.Buffer
	p := &credentials.Prompt{In: strings.NewReader("a@b.c\r\nsecret\n"), Out: &out, Fd: -1}
	c, err := p.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", c.Email)
	assert.Equal(t, "secret", c.Password)
	assert.Contains(t, out.String(), "Email: ")
	assert.Contains(t, out.String(), "Password: ")
}

func TestPrompt_EOFWithoutInput(t *testing.T) {
	p := &credentials.Prompt{In: strings.NewReader(""), Out: &bytes.Buffer{}, Fd: -1}
	_, err := p.Credentials(context.Background())
	assert.Error(t, err)
}

func TestChainAndCached(t *testing.T) {
	ctx := context.Background()
	chain := credentials.Chain{
		envOf(nil),
		credentials.Static{Email: "x@y.z", Password: "pw"},
	}
	c, err := chain.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x@y.z", c.Email)

	_, err = credentials.Chain{envOf(nil)}.Credentials(ctx)
	assert.ErrorIs(t, err, credentials.ErrNoCredentials)

	calls := 0
	counting := countingStore{calls: &calls, creds: domain.Credentials{Email: "e", Password: "p"}}
	cached := &credentials.Cached{Inner: counting}
	for i := 0; i < 3; i++ {
		c, err := cached.Credentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, "e", c.Email)
	}
	assert.Equal(t, 1, calls)
}

type countingStore struct {
	calls *int
	creds domain.Credentials
}

func (s countingStore) Credentials(context.Context) (domain.Credentials, error) {
	*s.calls++
	return s.creds, nil
}
