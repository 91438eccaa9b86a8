package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/lysyi3m/factcomb/app/ident"
)

// Archive stores raw fetched pages under a name derived from the canonical URL.
type Archive struct {
	dir   string
	bytes atomic.Int64
}

func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

func (a *Archive) Path(canonicalURL string) string {
	return filepath.Join(a.dir, ident.URLHash(canonicalURL)+".html")
}

func (a *Archive) Store(canonicalURL string, body []byte) (string, error) {
	if a.dir == "" {
		return "", nil
	}

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := a.Path(canonicalURL)
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	a.bytes.Add(int64(len(body)))
	return path, nil
}

// Bytes is the total written since the archive was created.
func (a *Archive) Bytes() int64 {
	return a.bytes.Load()
}
