package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ghchangelog/pkg/cli/config"
	"github.com/m-mizutani/ghchangelog/pkg/domain/types"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		logger    *slog.Logger
	)

	// Subcommands see root flags, so configuration happens once the
	// subcommand's arguments have been parsed
	setup := func(ctx context.Context, c *cli.Command) (context.Context, error) {
		var err error
		logger, err = loggerCfg.Configure()
		if err != nil {
			return nil, err
		}
		if err := sentryCfg.Configure(); err != nil {
			return nil, err
		}

		slog.SetDefault(logger)
		return logging.With(ctx, logger), nil
	}

	app := &cli.Command{
		Name:    "ghchangelog",
		Usage:   "Generate a changelog from GitHub release notes",
		Version: types.Version,
		Flags:   append(loggerCfg.Flags(), sentryCfg.Flags()...),
		Commands: []*cli.Command{
			cmdGenerate(setup),
			cmdServe(setup),
		},
	}

	if err := app.Run(ctx, config.ExpandBareFlags(args)); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		sentryCfg.Capture(err)
		return err
	}

	return nil
}
