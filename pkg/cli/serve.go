package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ghchangelog/pkg/cli/config"
	githubcontroller "github.com/m-mizutani/ghchangelog/pkg/controller/github"
	controller "github.com/m-mizutani/ghchangelog/pkg/controller/http"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/usecase"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe(setup cli.BeforeFunc) *cli.Command {
	var (
		serverCfg    config.Server
		changelogCfg config.Changelog
		githubCfg    config.GitHub
		cacheCfg     config.Cache
		slackCfg     config.Slack
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, changelogCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:      "serve",
		Aliases:   []string{"s"},
		Usage:     "Regenerate a changelog file whenever GitHub reports a release",
		ArgsUsage: "<owner>/<repo>...",
		Flags:     flags,
		Before:    setup,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			req, err := changelogCfg.Request(c.Args().Slice(), c.IsSet)
			if err != nil {
				return err
			}
			if req.WritesToStdout() {
				return goerr.Wrap(model.ErrInvalidArgument, "serve requires --output to name a file")
			}

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
			changelogUC := usecase.NewChangelog(fetcher, opts...)
			webhookUC := usecase.NewWebhook(changelogUC, req)
			processor := githubcontroller.NewEventProcessor(webhookUC)

			server, err := controller.NewServer(ctx, processor,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(serverCfg.WebhookSecret),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			logger.Info("Starting ghchangelog server",
				slog.String("addr", serverCfg.Addr),
				slog.String("output", req.OutputPath),
				slog.Int("repositories", len(req.Repositories)),
			)

			errCh := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-errCh:
				return goerr.Wrap(err, "HTTP server failed")
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Waiting for pending regenerations")
			webhookUC.Wait()

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
