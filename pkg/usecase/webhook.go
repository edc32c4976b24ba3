package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/utils/async"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type webhookUseCase struct {
	changelog interfaces.ChangelogUseCase
	req       model.ChangelogRequest

	// Deliveries may arrive concurrently; the output file has one writer
	mu      sync.Mutex
	pending sync.WaitGroup
}

// NewWebhook creates a ReleaseEventUseCase that regenerates req whenever one
// of its repositories publishes, edits or deletes a release
func NewWebhook(changelogUC interfaces.ChangelogUseCase, req *model.ChangelogRequest) interfaces.ReleaseEventUseCase {
	uc := &webhookUseCase{
		changelog: changelogUC,
		req:       *req,
	}
	// Cached releases are stale by definition once a release changed
	uc.req.FlushCache = true
	return uc
}

// HandleRelease implements interfaces.ReleaseEventUseCase. Regeneration runs
// detached from ctx's cancellation so it survives the webhook request.
func (uc *webhookUseCase) HandleRelease(ctx context.Context, event *model.ReleaseEvent) (bool, error) {
	logger := logging.From(ctx).With(
		slog.String("delivery_id", event.DeliveryID),
		slog.String("repo", event.Slug()),
		slog.String("action", event.Action),
		slog.String("tag", event.Tag),
	)

	if !event.ChangesReleases() {
		logger.Info("Ignoring release event with unrelated action")
		return false, nil
	}
	if !uc.req.Tracks(event.Slug()) {
		logger.Info("Ignoring release event from untracked repository")
		return false, nil
	}

	uc.pending.Add(1)
	async.Dispatch(logging.With(ctx, logger), func(ctx context.Context) error {
		defer uc.pending.Done()
		if err := uc.regenerate(ctx, event); err != nil {
			logging.From(ctx).Error("Failed to regenerate changelog", slog.Any("error", err))
		}
		return nil
	})
	return true, nil
}

func (uc *webhookUseCase) regenerate(ctx context.Context, event *model.ReleaseEvent) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	logger := logging.From(ctx)
	logger.Info("Regenerating changelog")

	result, err := uc.changelog.Generate(ctx, &uc.req)
	if err != nil {
		return goerr.Wrap(err, "failed to regenerate changelog",
			goerr.V("delivery_id", event.DeliveryID), goerr.V("tag", event.Tag))
	}

	logger.Info("Changelog regenerated", slog.Int("tags", len(result.Tags)))
	return nil
}

// Wait implements interfaces.ReleaseEventUseCase
func (uc *webhookUseCase) Wait() {
	uc.pending.Wait()
}
