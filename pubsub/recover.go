package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/gobus/internal/pkg/stacktrace"
)

// invokeHandler runs fn and converts a panic into an error so a broken
// handler cannot take down the consume loop's process.
func invokeHandler(ctx context.Context, broker string, fn func(context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			paths := stacktrace.InternalPaths(stack)
			if len(paths) == 0 {
				slog.ErrorContext(ctx, "panic in message handler", "broker", broker, "panic", rvr, "stack", string(stack))
			} else {
				slog.ErrorContext(ctx, "panic in message handler", "broker", broker, "panic", rvr, "stack", paths)
			}
			err = fmt.Errorf("pubsub: panic in %s handler: %v", broker, rvr)
		}
	}()

	return fn(ctx)
}
