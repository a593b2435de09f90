package contract

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
)

// DefaultLogLevel is used when no level is configured.
const DefaultLogLevel = "warn"

var (
	loggerMu sync.RWMutex
	logger   = NewLogger(DefaultLogLevel, os.Stderr, false)
)

// NewLogger builds a structured console logger writing to w.
func NewLogger(level string, w io.Writer, colorOutput bool) *log.Logger {
	return &log.Logger{
		Level:      log.ParseLevel(strings.ToLower(level)),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput:    colorOutput,
			EndWithMessage: true,
			Writer:         w,
		},
	}
}

// DiscardLogger returns a logger that drops everything, for tests and quiet runs.
func DiscardLogger() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

// InitLogger replaces the process logger. It is called once from the command layer.
func InitLogger(level string, w io.Writer, colorOutput bool) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = NewLogger(level, w, colorOutput)
}

// Logger returns the process logger.
func Logger() *log.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// ValidLogLevels lists the accepted --log-level values.
var ValidLogLevels = map[string]struct{}{
	"trace": {},
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}
