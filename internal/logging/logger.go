// Package logging provides the structured logger used across the
// engine. It wraps zerolog so call sites never import it directly,
// exactly as the predecessor's internal/common/logger package did.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Logger is the logging facade every component depends on.
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
}

type loggerImpl struct {
	zl zerolog.Logger
}

// New builds a Logger fanning events into the given writers.
func New(level zerolog.Level, writers ...io.Writer) Logger {
	multi := io.MultiWriter(writers...)
	zl := zerolog.New(multi).With().Timestamp().Logger().Level(level)
	return &loggerImpl{zl: zl}
}

// ConsoleWriter returns a human-readable console writer.
func ConsoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
}

// FileWriter returns a rotating file writer.
func FileWriter(path string, maxSizeMB, maxBackups, maxAgeDays int, compress bool) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   compress,
	}
}

func (l *loggerImpl) Info(msg string, fields ...interface{})  { logWithFields(l.zl.Info(), msg, fields...) }
func (l *loggerImpl) Warn(msg string, fields ...interface{})  { logWithFields(l.zl.Warn(), msg, fields...) }
func (l *loggerImpl) Error(msg string, fields ...interface{}) { logWithFields(l.zl.Error(), msg, fields...) }
func (l *loggerImpl) Debug(msg string, fields ...interface{}) { logWithFields(l.zl.Debug(), msg, fields...) }
func (l *loggerImpl) Fatal(msg string, fields ...interface{}) { logWithFields(l.zl.Fatal(), msg, fields...) }

// logWithFields accepts either a single map[string]interface{} or a flat
// key-value variadic list; "error" keys are routed through .Err() so
// zerolog renders them consistently.
func logWithFields(event *zerolog.Event, msg string, fields ...interface{}) {
	if len(fields) == 1 {
		if m, ok := fields[0].(map[string]interface{}); ok {
			event.Fields(m).Msg(msg)
			return
		}
	}
	if len(fields)%2 == 0 {
		for i := 0; i < len(fields); i += 2 {
			key, ok := fields[i].(string)
			if !ok {
				continue
			}
			if key == "error" {
				if err, ok := fields[i+1].(error); ok && err != nil {
					event = event.Err(err)
					continue
				}
			}
			event = event.Interface(key, fields[i+1])
		}
	}
	event.Msg(msg)
}

// ParseLevel maps the textual config level to a zerolog.Level,
// defaulting to info on an unrecognized value.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
