package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SanitizerCore masks the values of sensitive fields before they reach the
// wrapped core.
type SanitizerCore struct {
	zapcore.Core
	sensitive map[string]struct{}
	mask      string
}

func NewSanitizerCore(core zapcore.Core, sensitiveFields []string, mask string) *SanitizerCore {
	sensitive := make(map[string]struct{}, len(sensitiveFields))
	for _, f := range sensitiveFields {
		sensitive[strings.ToLower(f)] = struct{}{}
	}
	return &SanitizerCore{Core: core, sensitive: sensitive, mask: mask}
}

func (s *SanitizerCore) With(fields []zapcore.Field) zapcore.Core {
	return &SanitizerCore{
		Core:      s.Core.With(s.sanitize(fields)),
		sensitive: s.sensitive,
		mask:      s.mask,
	}
}

func (s *SanitizerCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if s.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, s)
	}
	return checkedEntry
}

func (s *SanitizerCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return s.Core.Write(entry, s.sanitize(fields))
}

func (s *SanitizerCore) sanitize(fields []zapcore.Field) []zapcore.Field {
	var masked []zapcore.Field
	for i, field := range fields {
		if _, ok := s.sensitive[strings.ToLower(field.Key)]; !ok {
			continue
		}
		if masked == nil {
			masked = make([]zapcore.Field, len(fields))
			copy(masked, fields)
		}
		masked[i] = zap.String(field.Key, s.mask)
	}
	if masked == nil {
		return fields
	}
	return masked
}
