// Package blob places uploaded bytes in a storage backend under generated
// keys and reads them back.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/google/uuid"
)

// Store is a flat key/value object store. Keys are produced by Put and are
// opaque to callers.
type Store interface {
	// Put writes r under a fresh key derived from suggestedName and returns
	// the key and the number of bytes written.
	Put(ctx context.Context, r io.Reader, suggestedName string) (key string, size int64, err error)
	// Open returns the bytes stored under key. Unknown keys yield common.ErrorNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// maxKeyExtension keeps file names of the local backend within the usual
// 255 byte limit. Longer extensions are left out of the key.
const maxKeyExtension = 32

// NewStorageKey returns users/<yyyy>/<m>/<d>/<uuid><ext>. The extension is
// taken from name and lowercased so display names never leak into storage.
func NewStorageKey(now time.Time, name string) string {
	ext := models.FileType(name)
	if len(ext) > maxKeyExtension {
		ext = ""
	}
	return fmt.Sprintf("users/%d/%d/%d/%v%s", now.Year(), int(now.Month()), now.Day(), uuid.New(), ext)
}

// validKey rejects keys that could escape the storage root.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "" {
			return false
		}
	}
	return true
}
