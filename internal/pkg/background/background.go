package background

import "log/slog"

// Go runs fn on its own goroutine as a fire-and-forget side effect (code
// delivery, notifications). Failures are logged and swallowed; they never
// block or fail the originating request. Panics are recovered so a broken
// side effect cannot take the process down.
func Go(task string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background task panicked", "task", task, "panic", r)
			}
		}()
		if err := fn(); err != nil {
			slog.Warn("background task failed", "task", task, "err", err)
		}
	}()
}
