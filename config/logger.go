package config

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the process-wide zap logger. JSON output in production,
// console output otherwise.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		var cfg zap.Config
		if os.Getenv("GO_ENV") == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		} else {
			cfg = zap.NewDevelopmentConfig()
		}

		l, err := cfg.Build()
		if err != nil {
			panic("failed to build logger: " + err.Error())
		}
		logger = l.With(zap.String("service", "prajavaradhi-be"))
	})
	return logger
}
