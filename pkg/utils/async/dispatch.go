package async

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
)

// Dispatch runs handler in a new goroutine with a context that keeps the
// values of ctx, including its logger, but is never cancelled with it. Panics
// and returned errors are logged.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(newCtx).Error("Panic in async handler",
					slog.Any("recover", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()

		if err := handler(newCtx); err != nil {
			logging.From(newCtx).Error("Async handler failed", slog.Any("error", err))
		}
	}()
}
