package interfaces

import (
	"context"
	"net/http"

	domaintypes "msl/internal/domain/types"
)

// Transport POSTs opaque bodies and returns the raw response, whatever its status.
type Transport interface {
	Post(ctx context.Context, url string, body []byte, header http.Header) (domaintypes.Response, error)
}

// CredentialStore supplies account credentials on demand.
type CredentialStore interface {
	Credentials(ctx context.Context) (domaintypes.Credentials, error)
}
