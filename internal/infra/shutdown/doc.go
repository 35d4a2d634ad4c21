// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT, SIGTERM or context cancellation and then
// runs registered hooks in reverse registration order under a shared
// timeout:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("storage", func(context.Context) error { return engine.Close() })
//	h.OnShutdown("server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
