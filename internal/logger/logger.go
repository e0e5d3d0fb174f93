package logger

import (
	"sync"
)

// Log levels accepted in logs.level.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// logFileName is created inside logs.directory when one is configured.
const logFileName = "heaters.log"

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton console logger configured with the provided level.
// The first call (Get or Init) wins; later calls return the same instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, nil)
	})
	return globalLogger
}

// Init initializes the singleton with an additional log file under dir.
// An empty dir behaves like Get.
func Init(level, dir string) (*Logger, error) {
	var initErr error
	once.Do(func() {
		sink, err := openLogFile(dir)
		if err != nil {
			initErr = err
			globalLogger = newZapLogger(level, nil)
			return
		}
		globalLogger = newZapLogger(level, sink)
	})
	return globalLogger, initErr
}

// Nop returns a logger that discards everything. Used by tests and library callers.
func Nop() *Logger {
	return newNopLogger()
}
