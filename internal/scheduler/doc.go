// Package scheduler turns RPC requests into timed payload forwards.
//
// A Scheduler runs on the event loop: it registers one loop timer per
// task and, when the timer fires, hands a snapshot of the task's framed
// payload to a Forwarder. The Forwarder dials the worker and writes the
// frame on its own goroutine so the loop never waits on the network.
//
// Tasks are either ModeOnce (fire, then release) or ModeRepeat (fire every
// Period until cancelled).
package scheduler
