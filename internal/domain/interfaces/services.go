package interfaces

import (
	"context"

	domaintypes "msl/internal/domain/types"
)

// HandshakeService performs a full key exchange and returns the new state.
type HandshakeService interface {
	Handshake(ctx context.Context) (domaintypes.SessionState, error)
}

// PlaybackService is what a player talks to: manifests and licenses.
type PlaybackService interface {
	// Manifest fetches and transcodes the manifest for viewableID, returning
	// both the document and its rendered MPD.
	Manifest(ctx context.Context, viewableID int64) (domaintypes.ManifestDocument, []byte, error)
	// License exchanges a CDM challenge for a raw license blob.
	License(ctx context.Context, challenge []byte, sessionID string) ([]byte, error)
}
