package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			if gotLog := buf.Len() > 0; gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Exported 3 files, 1 from cache")

	out := buf.String()
	if !strings.Contains(out, "Exported 3 files, 1 from cache (") {
		t.Errorf("progress.done() output = %q, want message with elapsed time", out)
	}
	if !strings.Contains(out, "ms)") {
		t.Errorf("progress.done() output = %q, want millisecond duration", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)

	if got := loggerFromContext(withLogger(context.Background(), custom)); got != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("loggerFromContext should fall back to log.Default()")
	}
}

func TestCLIVerbose(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	if c.Verbose() {
		t.Error("Verbose() = true at info level")
	}

	c.SetLogLevel(LogDebug)
	if !c.Verbose() {
		t.Error("Verbose() = false after SetLogLevel(LogDebug)")
	}
	c.Logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug message missing from %q", buf.String())
	}
}
