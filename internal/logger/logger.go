package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level            string       `json:"level"`
	OutputPaths      []string     `json:"outputPaths"`
	ErrorOutputPaths []string     `json:"errorOutputPaths"`
	Development      bool         `json:"development"`
	LogToConsole     bool         `json:"logToConsole"`
	Sampling         Sampling     `json:"sampling"`
	Encoding         Encoding     `json:"encodingConfig"`
	LogRotation      LogRotation  `json:"logRotation"`
	Sanitization     Sanitization `json:"sanitization"`
}

type Sampling struct {
	Initial    int `json:"initial"`
	Thereafter int `json:"thereafter"`
}

type Encoding struct {
	TimeKey         string `json:"timeKey"`
	LevelKey        string `json:"levelKey"`
	NameKey         string `json:"nameKey"`
	CallerKey       string `json:"callerKey"`
	MessageKey      string `json:"messageKey"`
	StacktraceKey   string `json:"stacktraceKey"`
	LineEnding      string `json:"lineEnding"`
	LevelEncoder    string `json:"levelEncoder"`
	TimeEncoder     string `json:"timeEncoder"`
	DurationEncoder string `json:"durationEncoder"`
	CallerEncoder   string `json:"callerEncoder"`
}

type LogRotation struct {
	Enabled    bool `json:"enabled"`
	MaxSizeMB  int  `json:"maxSizeMB"`
	MaxBackups int  `json:"maxBackups"`
	MaxAgeDays int  `json:"maxAgeDays"`
	Compress   bool `json:"compress"`
}

// Sanitization lists the field keys whose values never reach the output.
type Sanitization struct {
	SensitiveFields []string `json:"sensitiveFields"`
	Mask            string   `json:"mask"`
}

type fileConfig struct {
	Loggers map[string]Config `json:"loggers"`
}

// load builds the loggers of every configuration file. Missing files are
// skipped so the service can start with the default logger only.
func (lm *LoggerManager) load(configPaths []string) error {
	for _, configPath := range configPaths {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read log configuration '%s': %w", configPath, err)
		}

		var fc fileConfig
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("failed to parse log configuration '%s': %w", configPath, err)
		}

		for name, cfg := range fc.Loggers {
			cfg := cfg
			logger, closer, err := buildLogger(name, &cfg)
			if err != nil {
				return fmt.Errorf("failed to build logger '%s': %w", name, err)
			}
			if err := lm.AddLogger(name, logger); err != nil {
				return fmt.Errorf("failed to add logger '%s' from '%s': %w", name, configPath, err)
			}
			lm.closers = append(lm.closers, closer)
		}
	}

	if _, err := lm.GetLogger("default"); err != nil {
		cfg := *lm.defaultConfig
		logger, closer, err := buildLogger("default", &cfg)
		if err != nil {
			return fmt.Errorf("failed to build default logger: %w", err)
		}
		if err := lm.AddLogger("default", logger); err != nil {
			return err
		}
		lm.closers = append(lm.closers, closer)
	}
	return nil
}

// buildLogger assembles the console and file cores for cfg. The returned
// closer stops the background writers of the file cores.
func buildLogger(name string, cfg *Config) (*zap.Logger, func(), error) {
	assignDefaultValues(cfg)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        cfg.Encoding.TimeKey,
		LevelKey:       cfg.Encoding.LevelKey,
		NameKey:        cfg.Encoding.NameKey,
		CallerKey:      cfg.Encoding.CallerKey,
		MessageKey:     cfg.Encoding.MessageKey,
		StacktraceKey:  cfg.Encoding.StacktraceKey,
		LineEnding:     cfg.Encoding.LineEnding,
		EncodeLevel:    getZapLevelEncoder(cfg.Encoding.LevelEncoder),
		EncodeTime:     getZapTimeEncoder(cfg.Encoding.TimeEncoder),
		EncodeDuration: getZapDurationEncoder(cfg.Encoding.DurationEncoder),
		EncodeCaller:   getZapCallerEncoder(cfg.Encoding.CallerEncoder),
	}

	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)
	atomicLevel := zap.NewAtomicLevelAt(getZapLevel(cfg.Level))

	var cores []zapcore.Core
	var asyncCores []*AsyncCore
	if cfg.Development || cfg.LogToConsole {
		var consoleEncoder zapcore.Encoder
		if cfg.Development {
			consoleEncoderConfig := encoderConfig
			consoleEncoderConfig.EncodeLevel = coloredLevelEncoder
			consoleEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfig)
		} else {
			consoleEncoder = jsonEncoder
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), atomicLevel))
	}

	for _, path := range cfg.OutputPaths {
		if path == "stdout" || path == "stderr" {
			continue
		}

		var fileWS zapcore.WriteSyncer
		if cfg.LogRotation.Enabled {
			fileWS = zapcore.AddSync(ljLogger(path, cfg.LogRotation))
		} else {
			file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
			}
			fileWS = zapcore.AddSync(file)
		}

		fileCore := zapcore.NewCore(jsonEncoder.Clone(), fileWS, atomicLevel)
		async := NewAsyncCore(fileCore, 1000, 100, 500*time.Millisecond)
		asyncCores = append(asyncCores, async)
		cores = append(cores, async)
	}

	combined := zapcore.NewTee(cores...)
	if cfg.Sampling.Initial > 0 {
		combined = zapcore.NewSamplerWithOptions(combined, time.Second, cfg.Sampling.Initial, cfg.Sampling.Thereafter)
	}
	if len(cfg.Sanitization.SensitiveFields) > 0 {
		combined = NewSanitizerCore(combined, cfg.Sanitization.SensitiveFields, cfg.Sanitization.Mask)
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)}
	if len(cfg.ErrorOutputPaths) > 0 {
		if errWS, _, err := zap.Open(cfg.ErrorOutputPaths...); err == nil {
			opts = append(opts, zap.ErrorOutput(errWS))
		}
	}

	closer := func() {
		for _, ac := range asyncCores {
			ac.Close()
		}
	}
	return zap.New(combined, opts...).Named(name), closer, nil
}

// maps string levels to zapcore.Level.
func getZapLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "dpanic":
		return zap.DPanicLevel
	case "panic":
		return zap.PanicLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func getZapLevelEncoder(encoder string) zapcore.LevelEncoder {
	switch strings.ToLower(encoder) {
	case "uppercase", "capital":
		return zapcore.CapitalLevelEncoder
	default:
		return zapcore.LowercaseLevelEncoder
	}
}

func getZapTimeEncoder(encoder string) zapcore.TimeEncoder {
	switch strings.ToLower(encoder) {
	case "epoch":
		return zapcore.EpochTimeEncoder
	case "millis":
		return zapcore.EpochMillisTimeEncoder
	case "nanos":
		return zapcore.EpochNanosTimeEncoder
	case "rfc3339":
		return zapcore.RFC3339TimeEncoder
	default:
		return zapcore.ISO8601TimeEncoder
	}
}

func getZapDurationEncoder(encoder string) zapcore.DurationEncoder {
	switch strings.ToLower(encoder) {
	case "seconds":
		return zapcore.SecondsDurationEncoder
	case "millis":
		return zapcore.MillisDurationEncoder
	case "nanos":
		return zapcore.NanosDurationEncoder
	default:
		return zapcore.StringDurationEncoder
	}
}

func getZapCallerEncoder(encoder string) zapcore.CallerEncoder {
	if strings.EqualFold(encoder, "full") {
		return zapcore.FullCallerEncoder
	}
	return zapcore.ShortCallerEncoder
}

// colored levels for the development console
func coloredLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch l {
	case zapcore.DebugLevel:
		color = "\x1b[36m"
	case zapcore.InfoLevel:
		color = "\x1b[32m"
	case zapcore.WarnLevel:
		color = "\x1b[33m"
	case zapcore.ErrorLevel:
		color = "\x1b[31m"
	default:
		color = "\x1b[35m"
	}
	enc.AppendString(color + l.String() + "\x1b[0m")
}

func ljLogger(path string, l LogRotation) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
		Compress:   l.Compress,
	}
}
