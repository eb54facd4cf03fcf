// Package server implements the SEC node: the dispatcher serializing module
// access and event fan-out, the per-client connection with line framing and
// a bounded outbound queue, the TCP accept loop and the UDP discovery
// responder.
//
// One goroutine runs per client connection (inbound parsing) plus one for
// its outbound writes, and one poller goroutine runs per module. They meet
// in the Dispatcher, which owns the connection registry and the activation
// bookkeeping. Module parameter caches are guarded by their modules; the
// dispatcher's own locks are never held across hardware I/O, so a slow
// instrument never stalls clients of other modules.
package server
