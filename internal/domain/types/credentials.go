package types

// Credentials identify the account. They are read on demand and never persisted.
type Credentials struct {
	Email    string
	Password string

	// NetflixID and SecureNetflixID, when both set, are sent instead of the
	// email/password pair.
	NetflixID       string
	SecureNetflixID string
}

// HasNetflixID reports whether cookie-derived ids are available.
func (c Credentials) HasNetflixID() bool { return c.NetflixID != "" && c.SecureNetflixID != "" }
