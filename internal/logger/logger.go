package logger

import (
	"go.uber.org/zap"
)

// New builds the process logger: human-readable in development, JSON in
// production
func New(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		return cfg.Build()
	}
	return zap.NewProduction()
}
