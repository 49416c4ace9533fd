package flume

import (
	"log"
	"os"
	"sync/atomic"
)

var internalLogger atomic.Value

func init() {
	internalLogger.Store(log.New(os.Stderr, "[flume] ", log.LstdFlags))
}

// InternalLogger returns the Logger used to write out internal logs, where
// logs get written when something goes wrong inside the adapter itself.
func InternalLogger() *log.Logger { return internalLogger.Load().(*log.Logger) }

// SetInternalLogger makes l the internal logger, replacing the default
// stderr logger. Useful for redirecting the adapter's own diagnostics into
// a file or a test buffer.
func SetInternalLogger(l *log.Logger) {
	internalLogger.Store(l)
}
