package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultTTL is how long cached releases are served before being fetched again
const DefaultTTL = time.Hour

type envelope struct {
	StoredAt time.Time              `json:"stored_at"`
	Repo     string                 `json:"repo"`
	Records  []*model.ReleaseRecord `json:"records"`
}

// Fetcher serves release listings from a CacheStore, falling back to an
// inner ReleaseFetcher on a miss, an expired entry or a flush
type Fetcher struct {
	inner interfaces.ReleaseFetcher
	store interfaces.CacheStore
	ttl   time.Duration
	now   func() time.Time
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithTTL sets the lifetime of cache entries. Zero or negative disables expiry.
func WithTTL(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.ttl = ttl
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) FetcherOption {
	return func(f *Fetcher) {
		f.now = now
	}
}

// NewFetcher wraps inner with store
func NewFetcher(inner interfaces.ReleaseFetcher, store interfaces.CacheStore, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		inner: inner,
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Key returns the cache key of repo's release listing
func Key(repo *model.Repository) string {
	sum := sha256.Sum256([]byte(strings.ToLower(repo.Slug())))
	return "releases-" + hex.EncodeToString(sum[:])
}

// FetchReleases implements interfaces.ReleaseFetcher
func (f *Fetcher) FetchReleases(ctx context.Context, repo *model.Repository, opts model.FetchOptions) ([]*model.ReleaseRecord, error) {
	logger := logging.From(ctx).With(slog.String("repo", repo.Slug()))
	key := Key(repo)

	if opts.FlushCache {
		if err := f.store.Delete(ctx, key); err != nil {
			logger.Warn("Failed to flush cached releases", slog.Any("error", err))
		} else {
			logger.Debug("Flushed cached releases")
		}
	} else if records, ok := f.lookup(ctx, logger, key, repo); ok {
		return records, nil
	}

	records, err := f.inner.FetchReleases(ctx, repo, opts)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(&envelope{
		StoredAt: f.now().UTC(),
		Repo:     repo.Slug(),
		Records:  records,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode cache entry", goerr.V("repo", repo.Slug()))
	}

	// A cache that cannot be written only costs the next run a fetch
	if err := f.store.Put(ctx, key, data); err != nil {
		logger.Warn("Failed to store releases in cache", slog.Any("error", err))
	}

	return records, nil
}

func (f *Fetcher) lookup(ctx context.Context, logger *slog.Logger, key string, repo *model.Repository) ([]*model.ReleaseRecord, bool) {
	data, ok, err := f.store.Get(ctx, key)
	if err != nil {
		logger.Warn("Failed to read cached releases", slog.Any("error", err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry envelope
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Warn("Ignoring corrupt cache entry", slog.Any("error", err))
		return nil, false
	}

	if !strings.EqualFold(entry.Repo, repo.Slug()) {
		return nil, false
	}
	if f.ttl > 0 && f.now().Sub(entry.StoredAt) > f.ttl {
		logger.Debug("Cached releases expired", slog.Time("stored_at", entry.StoredAt))
		return nil, false
	}

	// Cached records carry the index of whichever run stored them
	for _, r := range entry.Records {
		r.RepoIndex = repo.Index
	}

	logger.Debug("Using cached releases", slog.Int("count", len(entry.Records)))
	return entry.Records, true
}
