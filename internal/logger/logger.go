package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvProduction selects JSON output and Info as the default level.
const EnvProduction = "production"

// New creates a structured logger writing to stdout. An empty level picks the
// environment default: info in production, debug elsewhere.
func New(env, level string) (*zap.Logger, error) {
	lvl, err := parseLevel(env, level)
	if err != nil {
		return nil, err
	}
	return build(env, lvl, zapcore.Lock(os.Stdout)), nil
}

// NewWithDefaults creates a logger from SERVER_ENV and LOG_LEVEL, falling back
// to a production logger when LOG_LEVEL is unusable
func NewWithDefaults() *zap.Logger {
	env := os.Getenv("SERVER_ENV")
	if env == "" {
		env = "development"
	}

	logger, err := New(env, os.Getenv("LOG_LEVEL"))
	if err != nil {
		logger = build(EnvProduction, zapcore.InfoLevel, zapcore.Lock(os.Stdout))
		logger.Warn("Ignoring LOG_LEVEL", zap.Error(err))
	}
	return logger
}

func parseLevel(env, level string) (zapcore.Level, error) {
	if level == "" {
		if env == EnvProduction {
			return zapcore.InfoLevel, nil
		}
		return zapcore.DebugLevel, nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func encoder(env string) zapcore.Encoder {
	if env == EnvProduction {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "timestamp"
		cfg.MessageKey = "message"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func build(env string, level zapcore.Level, out zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(encoder(env), out, level)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
	)
}
