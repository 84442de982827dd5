package ports

import (
	"context"
	"io"
)

type PutArtifactInput struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

type PutArtifactOutput struct {
	// Path is where the artifact landed. For localfs it is the absolute
	// filesystem path; the host correlates outputs by Name, not Path.
	Path string
	Size int64
}

// ArtifactStore: destinations for downloaded prediction outputs
// (localfs today; the interface keeps the fetcher backend-agnostic).
type ArtifactStore interface {
	Provider() string

	Put(ctx context.Context, in PutArtifactInput) (PutArtifactOutput, error)
	Remove(ctx context.Context, name string) error
}
