package interfaces

import (
	"context"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
)

// ReleaseFetcher retrieves the releases of a repository
type ReleaseFetcher interface {
	// FetchReleases returns every release of repo, newest first, with
	// pagination already resolved
	FetchReleases(ctx context.Context, repo *model.Repository, opts model.FetchOptions) ([]*model.ReleaseRecord, error)
}

// CacheStore persists fetched release data between invocations
type CacheStore interface {
	// Get returns the stored value for key. found is false if nothing is stored.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
