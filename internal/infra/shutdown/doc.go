// Package shutdown coordinates graceful process termination.
//
// Components register hooks while starting up; on SIGINT, SIGTERM or
// cancellation of the parent context the hooks run once, newest first,
// under a shared deadline:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("http server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
