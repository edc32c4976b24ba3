package github

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ghchangelog/pkg/domain/interfaces"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// EventProcessor routes parsed GitHub webhook payloads to use cases
type EventProcessor struct {
	releaseUC interfaces.ReleaseEventUseCase
	now       func() time.Time
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(releaseUC interfaces.ReleaseEventUseCase) *EventProcessor {
	return &EventProcessor{
		releaseUC: releaseUC,
		now:       time.Now,
	}
}

// ProcessEvent handles a payload returned by github.ParseWebHook and reports
// whether a changelog regeneration was scheduled
func (p *EventProcessor) ProcessEvent(ctx context.Context, deliveryID, eventType string, payload any) (bool, error) {
	logger := logging.From(ctx)

	switch eventType {
	case "release":
		return p.processReleaseEvent(ctx, deliveryID, payload)
	case "ping":
		logger.Info("Webhook ping received", slog.String("delivery_id", deliveryID))
		return false, nil
	default:
		logger.Info("Ignoring unsupported event type", slog.String("event_type", eventType))
		return false, nil
	}
}

func (p *EventProcessor) processReleaseEvent(ctx context.Context, deliveryID string, payload any) (bool, error) {
	releaseEvent, ok := payload.(*github.ReleaseEvent)
	if !ok {
		return false, goerr.Wrap(model.ErrInvalidArgument, "unexpected release event payload")
	}

	event, err := p.extractReleaseEvent(deliveryID, releaseEvent)
	if err != nil {
		return false, err
	}

	return p.releaseUC.HandleRelease(ctx, event)
}

func (p *EventProcessor) extractReleaseEvent(deliveryID string, e *github.ReleaseEvent) (*model.ReleaseEvent, error) {
	owner := e.GetRepo().GetOwner().GetLogin()
	repo := e.GetRepo().GetName()

	if owner == "" || repo == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "missing repository in release event",
			goerr.V("owner", owner), goerr.V("repo", repo))
	}

	return &model.ReleaseEvent{
		DeliveryID: deliveryID,
		Action:     e.GetAction(),
		Owner:      owner,
		Repo:       repo,
		Tag:        e.GetRelease().GetTagName(),
		ReceivedAt: p.now(),
	}, nil
}
