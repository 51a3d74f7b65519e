package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/timex"
	"github.com/spf13/afero"
)

// LocalStore keeps blobs as files on an afero filesystem, usually a
// BasePathFs rooted at the upload folder.
type LocalStore struct {
	fs  afero.Fs
	now timex.Clock
}

func NewLocalStore(fs afero.Fs, now timex.Clock) *LocalStore {
	if now == nil {
		now = time.Now
	}
	return &LocalStore{fs: fs, now: now}
}

func (s *LocalStore) Put(ctx context.Context, r io.Reader, suggestedName string) (string, int64, error) {
	key := NewStorageKey(s.now(), suggestedName)

	if err := s.fs.MkdirAll(path.Dir(key), 0o770); err != nil {
		return "", 0, fmt.Errorf("mkdir: %w", err)
	}

	f, err := s.fs.OpenFile(key, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o660)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", key, err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = s.fs.Remove(key)
		return "", 0, fmt.Errorf("write %s: %w", key, err)
	}

	return key, size, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, common.ErrorNotFound
	}
	f, err := s.fs.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return f, nil
}
