// Package shutdown coordinates graceful shutdown of the blueis server.
//
// A Handler waits for SIGINT/SIGTERM (or cancellation of its context),
// then runs registered hooks in reverse registration order under a
// deadline:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(engine.Close)
//	err := h.Wait(ctx)
package shutdown
