package github

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const defaultPerPage = 100

type config struct {
	token      string
	baseURL    string
	httpClient *http.Client
	perPage    int
}

// Option is a functional option for Client configuration
type Option func(*config)

// WithToken authenticates requests with a bearer token
func WithToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithBaseURL sets the REST API endpoint, e.g. for GitHub Enterprise Server
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// WithPerPage sets the page size of release listings
func WithPerPage(perPage int) Option {
	return func(c *config) {
		c.perPage = perPage
	}
}

type client struct {
	githubClient *github.Client
	perPage      int
}

// NewClient creates a ReleaseFetcher backed by the GitHub REST API
func NewClient(opts ...Option) (interfaces.ReleaseFetcher, error) {
	cfg := &config{
		perPage: defaultPerPage,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	githubClient := github.NewClient(cfg.httpClient)
	if cfg.token != "" {
		githubClient = githubClient.WithAuthToken(cfg.token)
	}

	if cfg.baseURL != "" {
		baseURL := cfg.baseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, goerr.Wrap(model.ErrInvalidArgument, "invalid GitHub API URL",
				goerr.V("url", cfg.baseURL), goerr.V("cause", err.Error()))
		}
		githubClient.BaseURL = u
	}

	return &client{
		githubClient: githubClient,
		perPage:      cfg.perPage,
	}, nil
}

// FetchReleases lists every release of repo, following pagination links
func (c *client) FetchReleases(ctx context.Context, repo *model.Repository, _ model.FetchOptions) ([]*model.ReleaseRecord, error) {
	logger := logging.From(ctx)

	opt := &github.ListOptions{PerPage: c.perPage}
	var records []*model.ReleaseRecord

	for {
		releases, resp, err := c.githubClient.Repositories.ListReleases(ctx, repo.Owner, repo.Name, opt)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list releases",
				goerr.V("repo", repo.Slug()),
				goerr.V("page", opt.Page),
			)
		}

		logger.Debug("Fetched release page",
			slog.String("repo", repo.Slug()),
			slog.Int("page", opt.Page),
			slog.Int("count", len(releases)),
		)

		for _, rel := range releases {
			records = append(records, toRecord(repo.Index, rel))
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return records, nil
}

func toRecord(repoIndex int, rel *github.RepositoryRelease) *model.ReleaseRecord {
	record := &model.ReleaseRecord{
		RepoIndex: repoIndex,
		Tag:       rel.GetTagName(),
		CreatedAt: rel.GetCreatedAt().Time,
	}
	if rel.Body != nil {
		body := rel.GetBody()
		record.Body = &body
	}
	return record
}
