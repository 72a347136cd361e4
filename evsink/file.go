package evsink

import (
	"bufio"
	"os"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/evtrc/evtrc/internal/evdiag"
)

// FileSink writes trace chunks to a file through a buffered writer. Its
// Write method has the output-callback shape and is safe for concurrent
// use. Writes after Close log a warning and discard the chunk; the
// recording side has no way to handle a dead sink, so the sink absorbs it.
type FileSink struct {
	mtx    sync.Mutex
	f      *os.File
	w      *bufio.Writer
	path   string
	closed bool
}

// DefaultFilename returns a fresh "trace-<ulid>.json" name, unique per
// call, so repeated runs don't clobber each other's traces.
func DefaultFilename() string {
	return "trace-" + ulid.Make().String() + ".json"
}

// NewFileSink creates (truncating) the named trace file. An empty path
// selects DefaultFilename in the working directory.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		path = DefaultFilename()
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &FileSink{
		f:    f,
		w:    bufio.NewWriterSize(f, 1<<16),
		path: path,
	}, nil
}

// Path returns the file the sink writes to.
func (s *FileSink) Path() string {
	return s.path
}

// Write appends one chunk to the file. It never fails upward: write
// errors and writes on a closed sink are reported to the diagnostic
// channel and the chunk is dropped.
func (s *FileSink) Write(json []byte) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		evdiag.Warnf("file sink %s: write after close, %d bytes discarded", s.path, len(json))
		return
	}

	if _, err := s.w.Write(json); err != nil {
		evdiag.Errorf("file sink %s: %v", s.path, err)
	}
}

// Close flushes buffered data and closes the file. Further writes are
// discarded.
func (s *FileSink) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
