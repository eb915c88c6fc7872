package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/roundtable/internal/interfaces"
)

// FileSink writes documents to the local filesystem. Each write goes to a
// temporary file in the target directory and is renamed into place once synced.
type FileSink struct{}

// Compile-time assertion
var _ interfaces.FileSink = (*FileSink)(nil)

// NewFileSink creates a filesystem sink
func NewFileSink() *FileSink {
	return &FileSink{}
}

// Write stores data at path, creating parent directories
func (s *FileSink) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
