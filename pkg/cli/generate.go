package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/ghchangelog/pkg/cli/config"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/usecase"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdGenerate(setup cli.BeforeFunc) *cli.Command {
	var (
		changelogCfg config.Changelog
		githubCfg    config.GitHub
		cacheCfg     config.Cache
		slackCfg     config.Slack
	)

	var flags []cli.Flag
	flags = append(flags, changelogCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Create a changelog from the release notes of one or more GitHub repositories",
		ArgsUsage: "<owner>/<repo>...",
		Description: "The first repository is the primary repository. Releases of secondary\n" +
			"repositories are only included when requested with --releases, but their\n" +
			"notes are added to any release the changelog already includes.",
		Flags:  flags,
		Before: setup,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			req, err := changelogCfg.Request(c.Args().Slice(), c.IsSet)
			if err != nil {
				return err
			}

			logger.Debug("Configuration",
				slog.Any("github", githubCfg),
				slog.Any("cache", cacheCfg),
				slog.Any("slack", slackCfg),
			)

			fetcher, err := githubCfg.NewFetcher()
			if err != nil {
				return err
			}
			fetcher, closeCache, err := cacheCfg.Wrap(ctx, fetcher)
			if err != nil {
				return goerr.Wrap(err, "failed to set up release cache")
			}
			defer func() {
				if err := closeCache(); err != nil {
					logger.Warn("Failed to close release cache", slog.Any("error", err))
				}
			}()

			var opts []usecase.Option
			if n := slackCfg.Notifier(); n != nil {
				opts = append(opts, usecase.WithNotifier(n))
			}

			result, err := usecase.NewChangelog(fetcher, opts...).Generate(ctx, req)
			if err != nil {
				return err
			}

			if !c.Bool("quiet") && !req.WritesToStdout() {
				printSummary(result)
			}
			return nil
		},
	}
}

func printSummary(result *model.ChangelogResult) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	releases := "no releases"
	switch n := len(result.Tags); {
	case n == 1:
		releases = "1 release"
	case n > 1:
		releases = fmt.Sprintf("%d releases", n)
	}

	latest := ""
	if len(result.Tags) > 0 {
		latest = dim(fmt.Sprintf(" (latest %s)", result.Tags[0]))
	}

	fmt.Fprintf(os.Stderr, "%s %s: %s%s\n", green("✓"), cyan(result.OutputPath), releases, latest)
}
