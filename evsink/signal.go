package evsink

import (
	"os"
	"os/signal"

	"github.com/evtrc/evtrc"
)

// SignalFlusher flushes the trace log when the process receives one of
// the configured signals. The flush runs on a dedicated goroutine woken
// through os/signal; nothing happens in signal context, so the log's
// non-reentrant lock is never taken from a handler.
//
// Execute and Interrupt follow the oklog/run actor shape:
//
//	var g run.Group
//	g.Add(flusher.Execute, flusher.Interrupt)
type SignalFlusher struct {
	log  *evtrc.TraceLog
	sigs []os.Signal
	done chan struct{}
}

// NewSignalFlusher returns a flusher for the given signals, defaulting to
// os.Interrupt.
func NewSignalFlusher(log *evtrc.TraceLog, sigs ...os.Signal) *SignalFlusher {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}
	return &SignalFlusher{
		log:  log,
		sigs: sigs,
		done: make(chan struct{}),
	}
}

// Execute blocks, flushing the log on each configured signal, until
// Interrupt is called.
func (sf *SignalFlusher) Execute() error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sf.sigs...)
	defer signal.Stop(ch)

	for {
		select {
		case <-ch:
			sf.log.Flush()
		case <-sf.done:
			return nil
		}
	}
}

// Interrupt unblocks Execute.
func (sf *SignalFlusher) Interrupt(error) {
	select {
	case <-sf.done:
	default:
		close(sf.done)
	}
}
