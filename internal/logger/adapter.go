package logger

import (
	"log"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapWriter is an io.Writer that forwards each line to a zap logger.
type ZapWriter struct {
	logger *zap.Logger
	level  zapcore.Level
	prefix string
}

func NewZapWriter(logger *zap.Logger, level zapcore.Level, prefix string) *ZapWriter {
	return &ZapWriter{
		logger: logger.WithOptions(zap.AddCallerSkip(3)),
		level:  level,
		prefix: prefix,
	}
}

func (w *ZapWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}

	var fields []zap.Field
	if w.prefix != "" {
		fields = append(fields, zap.String("source", w.prefix))
	}
	if ce := w.logger.Check(w.level, msg); ce != nil {
		ce.Write(fields...)
	}
	return len(p), nil
}

// NewStdLogger returns a *log.Logger for APIs such as http.Server.ErrorLog.
func NewStdLogger(logger *zap.Logger, level zapcore.Level, prefix string) *log.Logger {
	return log.New(NewZapWriter(logger, level, prefix), "", 0)
}
