package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"genrun/internal/ports"
)

// LocalFS implements ports.ArtifactStore on the local filesystem. Artifacts
// land directly under the configured root — the job working directory, so
// the host can collect them by the filenames in the terminal record.
type LocalFS struct {
	root string
}

func New(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) Provider() string { return "localfs" }

func (l *LocalFS) Put(ctx context.Context, in ports.PutArtifactInput) (ports.PutArtifactOutput, error) {
	if in.Name == "" {
		return ports.PutArtifactOutput{}, fmt.Errorf("artifact name is required")
	}
	if strings.ContainsAny(in.Name, `/\`) {
		return ports.PutArtifactOutput{}, fmt.Errorf("artifact name must not contain path separators: %s", in.Name)
	}

	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return ports.PutArtifactOutput{}, err
	}

	dst := filepath.Join(l.root, in.Name)
	outF, err := os.Create(dst)
	if err != nil {
		return ports.PutArtifactOutput{}, err
	}
	defer outF.Close()

	n, err := io.Copy(outF, in.Reader)
	if err != nil {
		return ports.PutArtifactOutput{}, err
	}

	return ports.PutArtifactOutput{Path: dst, Size: n}, nil
}

func (l *LocalFS) Remove(ctx context.Context, name string) error {
	return os.Remove(filepath.Join(l.root, name))
}
