package logger

// DefaultConfig provides fallback logging settings for any logger not
// specified in log.config.json.
var DefaultConfig = Config{
	Level:            "info",
	OutputPaths:      []string{"stdout"},
	ErrorOutputPaths: []string{"stderr"},
	Development:      false,
	LogToConsole:     true,
	Encoding: Encoding{
		TimeKey:         "time",
		LevelKey:        "level",
		NameKey:         "logger",
		CallerKey:       "caller",
		MessageKey:      "msg",
		StacktraceKey:   "stacktrace",
		LineEnding:      "\n",
		LevelEncoder:    "lowercase",
		TimeEncoder:     "iso8601",
		DurationEncoder: "string",
		CallerEncoder:   "short",
	},
	LogRotation: LogRotation{
		Enabled:    true,
		MaxSizeMB:  100,
		MaxBackups: 7,
		MaxAgeDays: 30,
		Compress:   true,
	},
	Sanitization: Sanitization{
		SensitiveFields: []string{
			"senha",
			"nova_senha",
			"senha_hash",
			"password",
			"token",
			"authorization",
		},
		Mask: "****",
	},
}

func assignDefaultValues(cfg *Config) {
	if cfg.Level == "" {
		cfg.Level = DefaultConfig.Level
	}
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = DefaultConfig.OutputPaths
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = DefaultConfig.ErrorOutputPaths
	}
	if cfg.Encoding.TimeKey == "" {
		cfg.Encoding = DefaultConfig.Encoding
	}
	if cfg.Encoding.LevelEncoder == "" {
		cfg.Encoding.LevelEncoder = DefaultConfig.Encoding.LevelEncoder
	}
	if cfg.Encoding.TimeEncoder == "" {
		cfg.Encoding.TimeEncoder = DefaultConfig.Encoding.TimeEncoder
	}
	if cfg.Encoding.DurationEncoder == "" {
		cfg.Encoding.DurationEncoder = DefaultConfig.Encoding.DurationEncoder
	}
	if cfg.Encoding.CallerEncoder == "" {
		cfg.Encoding.CallerEncoder = DefaultConfig.Encoding.CallerEncoder
	}
	if cfg.LogRotation.MaxSizeMB == 0 {
		cfg.LogRotation.MaxSizeMB = DefaultConfig.LogRotation.MaxSizeMB
	}
	if cfg.LogRotation.MaxBackups == 0 {
		cfg.LogRotation.MaxBackups = DefaultConfig.LogRotation.MaxBackups
	}
	if cfg.LogRotation.MaxAgeDays == 0 {
		cfg.LogRotation.MaxAgeDays = DefaultConfig.LogRotation.MaxAgeDays
	}
	if cfg.Sanitization.Mask == "" {
		cfg.Sanitization.Mask = DefaultConfig.Sanitization.Mask
	}
	// Credentials are always masked; configured fields add to the list.
	cfg.Sanitization.SensitiveFields = mergeFields(DefaultConfig.Sanitization.SensitiveFields, cfg.Sanitization.SensitiveFields)
}

func mergeFields(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, f := range append(append([]string{}, base...), extra...) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
