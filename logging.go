package wirerpc

import (
	"io"
	"log"
	"os"

	gsyslog "github.com/hashicorp/go-syslog"
	"github.com/hashicorp/logutils"
)

// Level is a leveled-logging level name, passed straight through to
// logutils.LevelFilter.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var allLevels = []logutils.LogLevel{
	logutils.LogLevel(LevelDebug),
	logutils.LogLevel(LevelWarn),
	logutils.LogLevel(LevelError),
}

// Logger is the leveled logger threaded through Config into the connection
// engine, server and client (framing errors, dispatch misses, read/write
// errors, dial failures). The registrar's request handlers log through a
// fresh Default() instead. It wraps a stdlib *log.Logger behind a
// logutils.LevelFilter.
type Logger struct {
	std *log.Logger
}

// syslogWriter adapts a gsyslog.Syslogger to io.Writer so it can be teed
// with the primary sink. Everything is written at NOTICE; level filtering
// already happened in the LevelFilter upstream.
type syslogWriter struct {
	l gsyslog.Syslogger
}

func (s *syslogWriter) Write(p []byte) (int, error) {
	if err := s.l.WriteLevel(gsyslog.LOG_NOTICE, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// NewLogger builds a Logger writing to w (or os.Stderr if nil) at minLevel
// and above. If syslog is true it additionally attempts to open a syslog
// writer and tee output to it; a failure to reach syslog is not fatal, the
// logger silently falls back to w-only.
func NewLogger(w io.Writer, minLevel Level, syslog bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if syslog {
		if sl, err := gsyslog.NewLogger(gsyslog.LOG_NOTICE, "LOCAL0", "wirerpc"); err == nil {
			w = io.MultiWriter(w, &syslogWriter{l: sl})
		}
	}
	filter := &logutils.LevelFilter{
		Levels:   allLevels,
		MinLevel: logutils.LogLevel(minLevel),
		Writer:   w,
	}
	return &Logger{std: log.New(filter, "", log.LstdFlags)}
}

// Default returns a Logger at LevelWarn writing to stderr, used when a
// Config leaves Logger nil.
func Default() *Logger {
	return NewLogger(os.Stderr, LevelWarn, false)
}

func (l *Logger) Debugf(format string, args ...any) { l.std.Printf("[DEBUG] "+format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.std.Printf("[WARN] "+format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.std.Printf("[ERR] "+format, args...) }
