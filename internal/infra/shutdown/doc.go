// Package shutdown provides graceful shutdown for timerelay.
//
// A Handler collects cleanup hooks (stop the listener, drain in-flight
// dispatches, close the log file) and runs them in reverse registration
// order when SIGINT or SIGTERM arrives, or when the caller's context ends.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
