package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/ghchangelog/pkg/domain/changelog"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/usecase"
)

// MockReleaseFetcher is a mock implementation of ReleaseFetcher
type MockReleaseFetcher struct {
	fetchReleasesFunc func(ctx context.Context, repo *model.Repository, opts model.FetchOptions) ([]*model.ReleaseRecord, error)
	calls             []MockCall
}

type MockCall struct {
	Slug  string
	Flush bool
}

func (m *MockReleaseFetcher) FetchReleases(ctx context.Context, repo *model.Repository, opts model.FetchOptions) ([]*model.ReleaseRecord, error) {
	m.calls = append(m.calls, MockCall{Slug: repo.Slug(), Flush: opts.FlushCache})
	if m.fetchReleasesFunc != nil {
		return m.fetchReleasesFunc(ctx, repo, opts)
	}
	return nil, errors.New("mock not configured")
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	notifyFunc func(ctx context.Context, result *model.ChangelogResult) error
	results    []*model.ChangelogResult
}

func (m *MockNotifier) Notify(ctx context.Context, result *model.ChangelogResult) error {
	m.results = append(m.results, result)
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, result)
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

func fixtureFetcher() *MockReleaseFetcher {
	data := map[string][]*model.ReleaseRecord{
		"acme/app": {
			{Tag: "v1.0.1", CreatedAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), Body: strPtr("- Fix crash")},
			{Tag: "v1.0.0", CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		},
		"acme/lib": {
			{Tag: "v1.0.1", CreatedAt: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC), Body: strPtr("- Lib fix")},
		},
	}

	return &MockReleaseFetcher{
		fetchReleasesFunc: func(_ context.Context, repo *model.Repository, _ model.FetchOptions) ([]*model.ReleaseRecord, error) {
			var records []*model.ReleaseRecord
			for _, r := range data[repo.Slug()] {
				copied := *r
				copied.RepoIndex = repo.Index
				records = append(records, &copied)
			}
			return records, nil
		},
	}
}

func repositories(t *testing.T, slugs ...string) []*model.Repository {
	t.Helper()
	var repos []*model.Repository
	for i, slug := range slugs {
		repo, err := model.ParseRepository(i, slug)
		gt.NoError(t, err)
		repo.IncludeReleases = i == 0
		repos = append(repos, repo)
	}
	return repos
}

const singleRepoBody = `## [v1.0.1] - 2024-01-02

- Fix crash

## [v1.0.0] - 2024-01-01

[v1.0.1]: https://github.com/acme/app/compare/v1.0.0...v1.0.1
[v1.0.0]: https://github.com/acme/app/releases/tag/v1.0.0
`

func TestChangelogUseCase_Generate_PreservesHeader(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "CHANGELOG.md")

	existing := "# My Project\n\nHand-written intro.\n\n## [v0.1.0] - 2020-01-01\n\nstale\n"
	gt.NoError(t, os.WriteFile(path, []byte(existing), 0o600))

	fetcher := fixtureFetcher()
	uc := usecase.NewChangelog(fetcher)

	result, err := uc.Generate(ctx, &model.ChangelogRequest{
		Repositories: repositories(t, "acme/app"),
		OutputPath:   path,
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Tags, []string{"v1.0.1", "v1.0.0"})
	gt.Equal(t, result.OutputPath, path)

	written, err := os.ReadFile(path)
	gt.NoError(t, err)
	expected := "# My Project\n\nHand-written intro.\n\n" + singleRepoBody
	gt.Equal(t, string(written), expected)
	gt.Equal(t, result.Bytes, len(expected))

	info, err := os.Stat(path)
	gt.NoError(t, err)
	gt.Equal(t, info.Mode().Perm(), os.FileMode(0o600))

	t.Run("regeneration is idempotent", func(t *testing.T) {
		_, err := uc.Generate(ctx, &model.ChangelogRequest{
			Repositories: repositories(t, "acme/app"),
			OutputPath:   path,
		})
		gt.NoError(t, err)

		again, err := os.ReadFile(path)
		gt.NoError(t, err)
		gt.Equal(t, string(again), expected)
	})
}

func TestChangelogUseCase_Generate_ReusesLineEndings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	gt.NoError(t, os.WriteFile(path, []byte("# Title\r\n\r\nIntro\r\n"), 0o644))

	uc := usecase.NewChangelog(fixtureFetcher())
	_, err := uc.Generate(context.Background(), &model.ChangelogRequest{
		Repositories: repositories(t, "acme/app"),
		OutputPath:   path,
	})
	gt.NoError(t, err)

	written, err := os.ReadFile(path)
	gt.NoError(t, err)
	expected := strings.ReplaceAll("# Title\n\nIntro\n\n"+singleRepoBody, "\n", "\r\n")
	gt.Equal(t, string(written), expected)
}

func TestChangelogUseCase_Generate_NewFileUsesPreamble(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CHANGELOG.md")

	uc := usecase.NewChangelog(fixtureFetcher())
	_, err := uc.Generate(context.Background(), &model.ChangelogRequest{
		Repositories: repositories(t, "acme/app"),
		OutputPath:   path,
	})
	gt.NoError(t, err)

	written, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.True(t, strings.HasPrefix(string(written), strings.ReplaceAll(changelog.DefaultPreamble, "\n", changelog.DefaultEOL())))
}

func TestChangelogUseCase_Generate_Stdout(t *testing.T) {
	var stdout bytes.Buffer
	fetcher := fixtureFetcher()
	uc := usecase.NewChangelog(fetcher, usecase.WithStdout(&stdout))

	result, err := uc.Generate(context.Background(), &model.ChangelogRequest{
		Repositories: repositories(t, "acme/app", "acme/lib"),
		OutputPath:   "-",
		FlushCache:   true,
	})
	gt.NoError(t, err)
	gt.Equal(t, result.Bytes, stdout.Len())

	gt.A(t, fetcher.calls).Length(2)
	gt.Equal(t, fetcher.calls[0], MockCall{Slug: "acme/app", Flush: true})
	gt.Equal(t, fetcher.calls[1], MockCall{Slug: "acme/lib", Flush: true})

	out := strings.ReplaceAll(stdout.String(), "\r\n", "\n")
	gt.True(t, strings.HasPrefix(out, "# Changelog\n"))
	gt.String(t, out).Contains("## [v1.0.1] - 2024-01-02\n\n- Fix crash\n\n### acme/lib [v1.0.1][acme/lib v1.0.1]\n\n- Lib fix\n\n")
	gt.String(t, out).Contains("[acme/lib v1.0.1]: https://github.com/acme/lib/releases/tag/v1.0.1\n")
}

func TestChangelogUseCase_Generate_ConfigurationErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	original := "# Keep me\n\n## [v0.1.0] - 2020-01-01\n"
	gt.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	testCases := []struct {
		name string
		req  *model.ChangelogRequest
	}{
		{
			name: "no repository",
			req:  &model.ChangelogRequest{OutputPath: path},
		},
		{
			name: "invalid include pattern",
			req: &model.ChangelogRequest{
				Repositories: repositories(t, "acme/app"),
				Options:      model.Options{Include: "v(1"},
				OutputPath:   path,
			},
		},
		{
			name: "invalid heading mode",
			req: &model.ChangelogRequest{
				Repositories: repositories(t, "acme/app"),
				Options:      model.Options{Headings: "sometimes"},
				OutputPath:   path,
			},
		},
		{
			name: "invalid merge pattern",
			req: &model.ChangelogRequest{
				Repositories: repositories(t, "acme/app"),
				Options:      model.Options{Merge: true, ListItemPattern: "[-"},
				OutputPath:   path,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := fixtureFetcher()
			uc := usecase.NewChangelog(fetcher)

			_, err := uc.Generate(context.Background(), tc.req)
			gt.True(t, errors.Is(err, model.ErrInvalidArgument))
			gt.Equal(t, len(fetcher.calls), 0)

			written, err := os.ReadFile(path)
			gt.NoError(t, err)
			gt.Equal(t, string(written), original)
		})
	}
}

func TestChangelogUseCase_Generate_FetchError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	fetcher := &MockReleaseFetcher{
		fetchReleasesFunc: func(context.Context, *model.Repository, model.FetchOptions) ([]*model.ReleaseRecord, error) {
			return nil, errors.New("rate limited")
		},
	}

	_, err := usecase.NewChangelog(fetcher).Generate(context.Background(), &model.ChangelogRequest{
		Repositories: repositories(t, "acme/app", "acme/lib"),
		OutputPath:   path,
	})
	gt.Error(t, err)
	gt.Equal(t, len(fetcher.calls), 1)

	_, err = os.Stat(path)
	gt.True(t, errors.Is(err, os.ErrNotExist))
}

func TestChangelogUseCase_Generate_Notify(t *testing.T) {
	t.Run("notifier receives the result", func(t *testing.T) {
		notifier := &MockNotifier{}
		uc := usecase.NewChangelog(fixtureFetcher(),
			usecase.WithNotifier(notifier),
			usecase.WithStdout(&bytes.Buffer{}),
		)

		_, err := uc.Generate(context.Background(), &model.ChangelogRequest{
			Repositories: repositories(t, "acme/app"),
		})
		gt.NoError(t, err)
		gt.A(t, notifier.results).Length(1)
		gt.Equal(t, notifier.results[0].Tags, []string{"v1.0.1", "v1.0.0"})
	})

	t.Run("notification failure is not fatal", func(t *testing.T) {
		notifier := &MockNotifier{
			notifyFunc: func(context.Context, *model.ChangelogResult) error {
				return errors.New("webhook down")
			},
		}
		uc := usecase.NewChangelog(fixtureFetcher(),
			usecase.WithNotifier(notifier),
			usecase.WithStdout(&bytes.Buffer{}),
		)

		result, err := uc.Generate(context.Background(), &model.ChangelogRequest{
			Repositories: repositories(t, "acme/app"),
		})
		gt.NoError(t, err)
		gt.V(t, result).NotNil()
	})
}
