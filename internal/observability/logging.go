package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bsc-kit/scorecard-api/internal/config"
)

// NewLogger builds the process logger: JSON lines on stdout at LOG_LEVEL,
// tagged with the service name. Development mode (DPanic panics, stack traces
// on warnings) is only on when APP_ENV is "development".
func NewLogger(app config.AppConfig, cfg config.LoggerConfig) (*zap.Logger, error) {
	logger, err := loggerConfig(app, cfg).Build()
	if err != nil {
		return nil, err
	}
	if app.Name != "" {
		logger = logger.With(zap.String("service", app.Name))
	}
	return logger, nil
}

func loggerConfig(app config.AppConfig, cfg config.LoggerConfig) zap.Config {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.MessageKey = "message"
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      strings.EqualFold(app.Env, "development"),
		Encoding:         "json",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
