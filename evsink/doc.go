// Package evsink provides output adapters for the trace log: a buffered
// file sink, a signal-triggered flusher, an SSE stream server for live
// inspection, and a tee combinator. Sinks consume the chunks produced by
// the log's output callback and never call back into the log from the
// callback path.
package evsink
