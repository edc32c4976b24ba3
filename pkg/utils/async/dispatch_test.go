package async_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/ghchangelog/pkg/utils/async"
	"github.com/m-mizutani/ghchangelog/pkg/utils/logging"
)

// safeBuffer is a thread-safe buffer for concurrent logging
type safeBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (sb *safeBuffer) Write(p []byte) (int, error) {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.Write(p)
}

func (sb *safeBuffer) String() string {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.String()
}

// waitForLog polls buf until it contains want or a second has passed
func waitForLog(t *testing.T, buf *safeBuffer, want string) string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if out := buf.String(); strings.Contains(out, want) {
			return out
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("log did not contain %q: %s", want, buf.String())
	return ""
}

func bufferedContext(buf *safeBuffer) context.Context {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelError}))
	return logging.With(context.Background(), logger)
}

func TestDispatch(t *testing.T) {
	t.Run("executes handler asynchronously", func(t *testing.T) {
		var wg sync.WaitGroup
		executed := false

		wg.Add(1)
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			executed = true
			return nil
		})

		wg.Wait()
		gt.True(t, executed)
	})

	t.Run("logs returned errors", func(t *testing.T) {
		buf := &safeBuffer{}

		async.Dispatch(bufferedContext(buf), func(ctx context.Context) error {
			return errors.New("regeneration failed")
		})

		out := waitForLog(t, buf, "Async handler failed")
		gt.String(t, out).Contains("regeneration failed")
	})

	t.Run("recovers from panic with stack trace", func(t *testing.T) {
		buf := &safeBuffer{}

		async.Dispatch(bufferedContext(buf), func(ctx context.Context) error {
			panic("test panic with stack")
		})

		out := waitForLog(t, buf, "Panic in async handler")
		gt.String(t, out).Contains("test panic with stack")
		gt.String(t, out).Contains("dispatch_test.go")
	})

	t.Run("preserves the logger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(&safeBuffer{}, nil))
		ctx := logging.With(context.Background(), logger)

		got := make(chan *slog.Logger, 1)
		async.Dispatch(ctx, func(newCtx context.Context) error {
			got <- logging.From(newCtx)
			return nil
		})

		select {
		case l := <-got:
			gt.True(t, l == logger)
		case <-time.After(time.Second):
			t.Fatal("handler did not complete within timeout")
		}
	})

	t.Run("outlives the cancelled parent context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		release := make(chan struct{})
		done := make(chan error, 1)

		async.Dispatch(ctx, func(newCtx context.Context) error {
			<-release
			done <- newCtx.Err()
			return nil
		})

		cancel()
		close(release)

		select {
		case err := <-done:
			gt.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("handler did not complete within timeout")
		}
	})
}
