// Command evtrc-demo exercises the tracing library: it runs a handful of
// workers producing spans, counters, and async phases, writes the trace to
// a file, and optionally serves the chunk stream live over SSE.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/evtrc/evtrc"
	"github.com/evtrc/evtrc/evsink"
	"github.com/evtrc/evtrc/internal/evdebug"
)

func main() {
	var (
		ctx    = context.Background()
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stderr, args)
	switch {
	case err == nil:
		os.Exit(0)
	case errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stderr io.Writer, args []string) error {
	var flags struct {
		categories string
		output     string
		addr       string
		threshold  time.Duration
		workers    int
		duration   time.Duration
	}

	fs := ff.NewFlagSet("evtrc-demo")
	{
		fs.AddFlag(ff.FlagConfig{ShortName: 'c', LongName: "categories", Value: ffval.NewValue(&flags.categories), Usage: "category filter, comma-separated +/- regex list", NoDefault: true})
		fs.AddFlag(ff.FlagConfig{ShortName: 'o', LongName: "output", Value: ffval.NewValue(&flags.output), Usage: "trace output file (default trace-<ulid>.json)", NoDefault: true})
		fs.AddFlag(ff.FlagConfig{ShortName: 'a', LongName: "addr", Value: ffval.NewValue(&flags.addr), Usage: "listen address for the live SSE chunk stream", NoDefault: true})
		fs.AddFlag(ff.FlagConfig{ShortName: 't', LongName: "threshold", Value: ffval.NewValue(&flags.threshold), Usage: "minimum span duration to keep", NoDefault: true})
		fs.AddFlag(ff.FlagConfig{ShortName: 'w', LongName: "workers", Value: ffval.NewValueDefault(&flags.workers, 4), Usage: "number of workload goroutines"})
		fs.AddFlag(ff.FlagConfig{ShortName: 'd', LongName: "duration", Value: ffval.NewValueDefault(&flags.duration, 3*time.Second), Usage: "how long to generate load"})
	}

	if err := ff.Parse(fs, args); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			err = nil
		}
		return err
	}

	if flags.categories != "" {
		evtrc.SetCategoriesEnabled(flags.categories)
	}

	sink, err := evsink.NewFileSink(flags.output)
	if err != nil {
		return fmt.Errorf("create sink: %w", err)
	}

	var stream *evsink.StreamServer
	callback := evtrc.OutputCallback(sink.Write)
	if flags.addr != "" {
		stream = evsink.NewStreamServer(16)
		callback = evsink.Tee(sink.Write, stream.Write)
	}

	log := evtrc.Default()
	log.SetOutputCallback(callback)
	log.BeginLogging()

	defer func() {
		log.Flush()
		log.AddThreadNameMetadataEvents()
		log.Flush()
		log.EndLogging()
		if err := sink.Close(); err != nil {
			fmt.Fprintf(stderr, "close sink: %v\n", err)
		}
		recorded, dropped, discarded, flushed, batches := evdebug.LogCounters.Values()
		fmt.Fprintf(stderr, "wrote %s: recorded %d, dropped %d, discarded %d, flushed %d in %d batches\n",
			sink.Path(), recorded, dropped, discarded, flushed, batches)
	}()

	var g run.Group

	{
		workCtx, cancel := context.WithTimeout(ctx, flags.duration)
		for i := 0; i < flags.workers; i++ {
			i := i
			g.Add(func() error {
				worker(workCtx, i, flags.threshold)
				return nil
			}, func(error) {
				cancel()
			})
		}
	}

	if stream != nil {
		server := &http.Server{Addr: flags.addr, Handler: stream}
		g.Add(func() error {
			fmt.Fprintf(stderr, "live stream on http://%s\n", flags.addr)
			return server.ListenAndServe()
		}, func(error) {
			server.Shutdown(context.Background())
		})
	}

	{
		flusher := evsink.NewSignalFlusher(log, os.Interrupt)
		g.Add(flusher.Execute, flusher.Interrupt)
	}

	{
		g.Add(run.SignalHandler(ctx, os.Interrupt))
	}

	return g.Run()
}

// worker generates a plausible mix of trace events until the context ends.
func worker(ctx context.Context, n int, threshold time.Duration) {
	var processed int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			var s *evtrc.Scope
			if threshold > 0 {
				s = evtrc.SpanMin("demo.work", "unit", threshold)
			} else {
				s = evtrc.Span("demo.work", "unit", evtrc.Int64Arg("worker", int64(n)))
			}
			defer s.Close()

			time.Sleep(time.Duration(rand.Intn(2000)) * time.Microsecond)
			processed++

			if processed%10 == 0 {
				evtrc.Counter("demo.stats", "processed", processed)
			}
			if processed%25 == 0 {
				id := evtrc.NextTraceID()
				evtrc.AsyncBegin("demo.io", "lookup", id)
				time.Sleep(time.Duration(rand.Intn(500)) * time.Microsecond)
				evtrc.AsyncStep("demo.io", "lookup", id, "resolve")
				evtrc.AsyncEnd("demo.io", "lookup", id)
			}
			if processed%100 == 0 {
				evtrc.Instant("demo.work", "checkpoint",
					evtrc.CopyStringArg("detail", fmt.Sprintf("worker %d at %d", n, processed)))
			}
		}()
	}
}
