package blob

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/clouddrive/internal/filex"
	"github.com/dmitrijs2005/clouddrive/internal/server/config"
	"github.com/spf13/afero"
)

// osFs is the filesystem the local backend is rooted on.
var osFs = afero.NewOsFs()

// NewFromConfig builds the backend selected by cfg.BlobBackend.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendLocal, "":
		dir, err := filex.EnsureDir(osFs, cfg.UploadFolder)
		if err != nil {
			return nil, err
		}
		return NewLocalStore(afero.NewBasePathFs(osFs, dir), nil), nil
	case config.BlobBackendS3:
		s, err := NewS3Store(ctx, S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
