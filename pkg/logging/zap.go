package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter backs the Logger interface with a zap sugared logger so
// components never see zap types directly.
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger creates a console-encoded zap logger suitable for an
// interactive CLI. Debug messages are emitted only when verbose is set.
func NewZapLogger(verbose bool) (*ZapAdapter, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.DisableCaller = true
	config.DisableStacktrace = true

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &ZapAdapter{sugar: zapLogger.Sugar()}, nil
}

func (z *ZapAdapter) Debugf(format string, args ...interface{}) {
	z.sugar.Debugf(format, args...)
}

func (z *ZapAdapter) Infof(format string, args ...interface{}) {
	z.sugar.Infof(format, args...)
}

func (z *ZapAdapter) Warnf(format string, args ...interface{}) {
	z.sugar.Warnf(format, args...)
}

func (z *ZapAdapter) Errorf(format string, args ...interface{}) {
	z.sugar.Errorf(format, args...)
}

// Sync flushes buffered log entries. Callers should invoke it before exit.
func (z *ZapAdapter) Sync() error {
	return z.sugar.Sync()
}
