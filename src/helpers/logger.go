package helpers

import (
	"fmt"

	"mockmongo/src/settings"

	"go.uber.org/zap"
)

// NewLogger builds the sugared logger for the given settings: the development
// configuration on stdout in debug mode, the production configuration
// otherwise.
func NewLogger(args *settings.Arguments) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if args != nil && args.Debug {
		z := zap.NewDevelopmentConfig()
		z.OutputPaths = []string{"stdout"}
		logger, err = z.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger.Sugar(), nil
}

// LoggerOrNop returns logger, or a no-op logger when it is nil.
func LoggerOrNop(logger *zap.SugaredLogger) *zap.SugaredLogger {
	if logger == nil {
		return zap.NewNop().Sugar()
	}
	return logger
}
