package logger

import (
	"io"
	stdlog "log"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once      sync.Once
	singleton *log.Logger
)

func get() *log.Logger {
	once.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "geometry",
		})
		singleton.SetLevel(log.InfoLevel)
	})
	return singleton
}

// SetLevel accepts debug, info, warn, error and fatal.
func SetLevel(level string) error {
	l, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	get().SetLevel(l)
	return nil
}

func SetOutput(w io.Writer) {
	get().SetOutput(w)
}

// StandardLog adapts the logger for packages that want a *log.Logger or an
// io.Writer, lines are logged at info level.
func StandardLog() *stdlog.Logger {
	return get().StandardLog()
}

// With returns a child logger carrying key value pairs on every line.
func With(keyvals ...interface{}) *log.Logger {
	return get().With(keyvals...)
}

func Debugf(format string, args ...interface{}) {
	get().Helper()
	get().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	get().Helper()
	get().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	get().Helper()
	get().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	get().Helper()
	get().Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	get().Helper()
	get().Fatalf(format, args...)
}
