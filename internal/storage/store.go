package storage

import (
	"context"

	"drafter/internal/version"
)

// Store persists document sessions and their version history between runs.
type Store interface {
	// SaveSession upserts a session's working state, version nodes, and
	// branch tips.
	SaveSession(ctx context.Context, s *version.Session) error

	// LoadSession retrieves a session by document id; (nil, nil) when the
	// document is unknown.
	LoadSession(ctx context.Context, docID string) (*version.Session, error)

	// ListDocuments returns the known document ids.
	ListDocuments(ctx context.Context) ([]string, error)

	Close() error
}
