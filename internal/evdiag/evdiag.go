// Package evdiag is the diagnostic channel of the tracing library. The
// recording paths never propagate errors to instrumented code; whatever
// goes wrong there is reported here instead, decorated with the call site.
package evdiag

import (
	"fmt"
	"io"

	"github.com/go-stack/stack"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// Logger returns the underlying diagnostic logger, for programs that want
// to redirect or reconfigure it wholesale.
func Logger() *logrus.Logger {
	return logger
}

// SetOutput redirects diagnostic output. The default is stderr.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Errorf reports a recording failure.
func Errorf(format string, args ...any) {
	logger.WithField("site", site()).Errorf(format, args...)
}

// Warnf reports a recoverable condition, such as a chunk discarded by a
// closed sink.
func Warnf(format string, args ...any) {
	logger.WithField("site", site()).Warnf(format, args...)
}

// site identifies the caller of the package-level report functions,
// skipping the report function's own frame.
func site() string {
	return fmt.Sprintf("%+v", stack.Caller(2))
}
