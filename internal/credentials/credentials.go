// Package credentials supplies account credentials to the MSL client. They
// are held in memory only.
package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"msl/internal/domain"
)

// Environment variables read by Env.
const (
	EnvEmail           = "MSL_EMAIL"
	EnvPassword        = "MSL_PASSWORD"
	EnvNetflixID       = "MSL_NETFLIXID"
	EnvSecureNetflixID = "MSL_SECURENETFLIXID"
)

var ErrNoCredentials = errors.New("credentials: none available")

func usable(c domain.Credentials) bool {
	return c.HasNetflixID() || (c.Email != "" && c.Password != "")
}

// Static always returns the same credentials.
type Static domain.Credentials

func (s Static) Credentials(context.Context) (domain.Credentials, error) {
	c := domain.Credentials(s)
	if !usable(c) {
		return domain.Credentials{}, ErrNoCredentials
	}
	return c, nil
}

// Env reads credentials from MSL_* environment variables.
type Env struct {
	Getenv func(string) string
}

func (e Env) Credentials(context.Context) (domain.Credentials, error) {
	get := e.Getenv
	if get == nil {
		get = os.Getenv
	}
	c := domain.Credentials{
		Email:           get(EnvEmail),
		Password:        get(EnvPassword),
		NetflixID:       get(EnvNetflixID),
		SecureNetflixID: get(EnvSecureNetflixID),
	}
	if !usable(c) {
		return domain.Credentials{}, fmt.Errorf("%w: set %s and %s", ErrNoCredentials, EnvEmail, EnvPassword)
	}
	return c, nil
}

// Prompt asks for email and password. The password is read without echo when
// Fd is a terminal.
type Prompt struct {
	In  io.Reader
	Out io.Writer
	Fd  int
}

func NewPrompt() *Prompt {
	return &Prompt{In: os.Stdin, Out: os.Stderr, Fd: int(os.Stdin.Fd())}
}

func (p *Prompt) Credentials(ctx context.Context) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}
	r := bufio.NewReader(p.In)

	fmt.Fprint(p.Out, "Email: ")
	email, err := readLine(r)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read email: %w", err)
	}

	fmt.Fprint(p.Out, "Password: ")
	var password string
	if term.IsTerminal(p.Fd) {
		b, err := term.ReadPassword(p.Fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("read password: %w", err)
		}
		password = string(b)
	} else if password, err = readLine(r); err != nil {
		return domain.Credentials{}, fmt.Errorf("read password: %w", err)
	}

	c := domain.Credentials{Email: email, Password: password}
	if !usable(c) {
		return domain.Credentials{}, ErrNoCredentials
	}
	return c, nil
}

func readLine(r *bufio.Reader) (string, error) {
	s, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// Chain tries each store in order and returns the first usable answer.
type Chain []domain.CredentialStore

func (c Chain) Credentials(ctx context.Context) (domain.Credentials, error) {
	err := ErrNoCredentials
	for _, s := range c {
		creds, e := s.Credentials(ctx)
		if e == nil {
			return creds, nil
		}
		err = e
	}
	return domain.Credentials{}, err
}

// Cached remembers the first successful answer of Inner for the life of the
// process, so an interactive prompt is shown at most once.
type Cached struct {
	Inner domain.CredentialStore

	mu    sync.Mutex
	creds *domain.Credentials
}

func (c *Cached) Credentials(ctx context.Context) (domain.Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds != nil {
		return *c.creds, nil
	}
	creds, err := c.Inner.Credentials(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}
	c.creds = &creds
	return creds, nil
}

var (
	_ domain.CredentialStore = Static{}
	_ domain.CredentialStore = Env{}
	_ domain.CredentialStore = (*Prompt)(nil)
	_ domain.CredentialStore = Chain(nil)
	_ domain.CredentialStore = (*Cached)(nil)
)
