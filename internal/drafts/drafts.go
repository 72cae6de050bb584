// Package drafts persists finished reply drafts to local disk or S3.
package drafts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// DefaultDir is where local drafts land when no target path is given.
const DefaultDir = "drafts"

// Saver writes a draft and returns the location it was written to.
type Saver interface {
	Save(ctx context.Context, draft, target string) (string, error)
}

// LocalSaver writes drafts to the filesystem.
type LocalSaver struct {
	// Dir is the fallback directory for drafts saved without an explicit
	// path.
	Dir string
}

// NewLocalSaver returns a LocalSaver rooted at dir, or DefaultDir if empty.
func NewLocalSaver(dir string) *LocalSaver {
	if dir == "" {
		dir = DefaultDir
	}
	return &LocalSaver{Dir: dir}
}

// Save writes the draft to target. An empty target gets a timestamped name
// in the saver's directory; a target ending in a path separator is treated
// as a directory. Returns the path written.
func (s *LocalSaver) Save(_ context.Context, draft, target string) (string, error) {
	if strings.TrimSpace(draft) == "" {
		return "", models.ErrEmptyDraft
	}

	path := target
	switch {
	case path == "":
		path = filepath.Join(s.Dir, timestampedName())
	case strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator)):
		path = filepath.Join(path, timestampedName())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create draft directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(draft), 0o644); err != nil {
		return "", fmt.Errorf("write draft %s: %w", path, err)
	}
	return path, nil
}

// timestampedName returns a unique-enough default filename for a draft.
func timestampedName() string {
	return fmt.Sprintf("draft_%s.txt", time.Now().Format("20060102_150405"))
}
