package config

import (
	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	githubinfra "github.com/m-mizutani/ghchangelog/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub API configuration
type GitHub struct {
	Token  string `masq:"secret"`
	APIURL string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token for API requests",
			Destination: &c.Token,
			Sources:     cli.EnvVars("GHCHANGELOG_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "GitHub REST API endpoint (for GitHub Enterprise Server)",
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("GHCHANGELOG_GITHUB_API_URL"),
		},
	}
}

// NewFetcher creates a release fetcher for the GitHub API
func (c *GitHub) NewFetcher() (interfaces.ReleaseFetcher, error) {
	var opts []githubinfra.Option
	if c.Token != "" {
		opts = append(opts, githubinfra.WithToken(c.Token))
	}
	if c.APIURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(c.APIURL))
	}
	return githubinfra.NewClient(opts...)
}
