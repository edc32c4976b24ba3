package usecase

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ghchangelog/pkg/domain/changelog"
	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type changelogUseCase struct {
	fetcher  interfaces.ReleaseFetcher
	notifier interfaces.Notifier
	stdout   io.Writer
}

// Option configures the changelog use case
type Option func(*changelogUseCase)

// WithNotifier announces every generated changelog through n
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *changelogUseCase) {
		uc.notifier = n
	}
}

// WithStdout sets where changelogs without an output path are written
func WithStdout(w io.Writer) Option {
	return func(uc *changelogUseCase) {
		uc.stdout = w
	}
}

// NewChangelog creates a ChangelogUseCase reading releases from fetcher
func NewChangelog(fetcher interfaces.ReleaseFetcher, opts ...Option) interfaces.ChangelogUseCase {
	uc := &changelogUseCase{
		fetcher: fetcher,
		stdout:  os.Stdout,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Generate fetches releases of every repository in req and writes the changelog
func (uc *changelogUseCase) Generate(ctx context.Context, req *model.ChangelogRequest) (*model.ChangelogResult, error) {
	logger := logging.From(ctx)

	if len(req.Repositories) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "no repository given")
	}

	// Every configuration error surfaces before the first request
	filter, err := changelog.NewTagFilter(req.Options)
	if err != nil {
		return nil, err
	}
	renderer, err := changelog.NewRenderer(req.Repositories, filter, req.Options)
	if err != nil {
		return nil, err
	}

	releases := make([][]*model.ReleaseRecord, len(req.Repositories))
	for i, repo := range req.Repositories {
		logger.Info("Retrieving releases", slog.String("repo", repo.Slug()))

		records, err := uc.fetcher.FetchReleases(ctx, repo, model.FetchOptions{FlushCache: req.FlushCache})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to retrieve releases", goerr.V("repo", repo.Slug()))
		}

		logger.Info("Releases found", slog.String("repo", repo.Slug()), slog.Int("count", len(records)))
		releases[i] = records
	}

	collation := changelog.Collate(req.Repositories, releases, filter)

	doc := &changelog.Document{
		Header: changelog.DefaultPreamble,
		EOL:    changelog.DefaultEOL(),
	}
	if !req.WritesToStdout() {
		existing, err := readExisting(req.OutputPath)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(existing)) != "" {
			doc.Header = changelog.ExtractHeader(string(existing))
			if eol := changelog.DetectEOL(existing); eol != "" {
				doc.EOL = eol
			}
		}
	}

	doc.Body = renderer.Render(collation)
	out := []byte(doc.String())

	if req.WritesToStdout() {
		if _, err := uc.stdout.Write(out); err != nil {
			return nil, goerr.Wrap(err, "failed to write changelog to stdout")
		}
	} else if err := writeFileAtomic(req.OutputPath, out); err != nil {
		return nil, err
	}

	result := &model.ChangelogResult{
		OutputPath: req.OutputPath,
		Tags:       doc.Body.Tags(),
		Bytes:      len(out),
	}

	logger.Info("Changelog generated",
		slog.String("output", result.OutputPath),
		slog.Int("tags", len(result.Tags)),
		slog.Int("bytes", result.Bytes),
	)

	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, result); err != nil {
			logger.Warn("Failed to send notification", slog.Any("error", err))
		}
	}

	return result, nil
}

func readExisting(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read existing changelog", goerr.V("path", path))
	}
	return data, nil
}

// writeFileAtomic replaces path with data so that readers never observe a
// partially written file
func writeFileAtomic(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("path", path))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write changelog", goerr.V("path", path))
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to set changelog permissions", goerr.V("path", path))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to write changelog", goerr.V("path", path))
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return goerr.Wrap(err, "failed to replace changelog", goerr.V("path", path))
	}
	return nil
}
