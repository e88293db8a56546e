// Package async runs work in goroutines behind a generic Future.
//
// Async starts a function and returns a *Future that can be awaited, awaited
// with a timeout, or polled. WaitAll collects the results of several futures.
//
// Detach covers fire-and-forget work: the task runs on a context that ignores
// the caller's cancellation, bounded by its own timeout, and its outcome is
// handed to a callback (typically a log line). Nothing on the caller's path
// waits for it.
//
//	async.Detach(ctx, 3*time.Second, req, client.Verify, func(ok bool, err error) {
//		log.DebugContext(ctx, "advisory check", "valid", ok, logger.Error(err))
//	})
//
// Panics inside a task are recovered and reported as ErrPanic.
package async
