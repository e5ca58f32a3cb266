package main

import (
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/indexnet/gateway/util/panics"
)

var (
	backendLog = slog.NewBackend(logWriter{})
	log        = backendLog.Logger("GWYD")
	spawn      = panics.GoroutineWrapperFunc(log)
)

// logWriter wraps stdout and an optional rotating log file so slog's
// backend can write a single log record out to both console and disk.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if fileLogger != nil {
		fileLogger.Write(p)
	}
	return len(p), nil
}

var fileLogger *rotator.Rotator

// initLogRotator creates a rotating log file at logFile, keeping the most
// recent 3 rolls.
func initLogRotator(logFile string) error {
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return err
	}
	fileLogger = r
	return nil
}
