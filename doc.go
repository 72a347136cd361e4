// Package evtrc is an in-process event-tracing library that produces
// Chrome Trace Event Format JSON streams, for post-hoc visualization of
// program execution in chrome://tracing or compatible viewers.
//
// Instrumentation sites record duration spans, instants, counters, and
// asynchronous phases. Events are buffered in a bounded in-memory log and
// flushed in batches through a user-supplied output callback. Recording is
// gated per category: every event carries a category name, and categories
// can be enabled or disabled, both up front and while the program runs,
// with a comma-separated list of regex patterns.
//
// The typical setup configures the process-wide log once, at startup:
//
//	sink, _ := evsink.NewFileSink("trace.json")
//	evtrc.SetOutputCallback(sink.Write)
//	evtrc.SetCategoriesEnabled("-render.debug, render")
//	evtrc.BeginLogging()
//	defer func() {
//		evtrc.Flush()
//		evtrc.EndLogging()
//		sink.Close()
//	}()
//
// and instruments interesting regions with spans:
//
//	func renderFrame() {
//		defer evtrc.Span("render", "frame").Close()
//		...
//	}
//
// Recording is best effort. A full buffer drops events, a
// disabled category skips them, and failures on the span-closing path are
// reported to a diagnostic channel rather than propagated. None of the
// recording paths return errors to the instrumented code.
package evtrc
