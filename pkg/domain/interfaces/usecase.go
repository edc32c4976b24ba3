package interfaces

import (
	"context"

	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
)

// ChangelogUseCase generates changelogs from release notes
type ChangelogUseCase interface {
	// Generate fetches releases of every requested repository and writes the
	// rendered changelog
	Generate(ctx context.Context, req *model.ChangelogRequest) (*model.ChangelogResult, error)
}

// Notifier announces a generated changelog
type Notifier interface {
	Notify(ctx context.Context, result *model.ChangelogResult) error
}

// ReleaseEventUseCase keeps a changelog current as releases are published
type ReleaseEventUseCase interface {
	// HandleRelease schedules a background regeneration if event affects the
	// changelog and reports whether it did
	HandleRelease(ctx context.Context, event *model.ReleaseEvent) (bool, error)

	// Wait blocks until every scheduled regeneration has finished
	Wait()
}
