package logger

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log      atomic.Pointer[zap.Logger]
	lazyInit sync.Once
)

// Init builds the global logger. "production" gets JSON on stdout,
// everything else the colored development console encoder.
func Init(env string) {
	var cfg zap.Config

	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.MessageKey = "msg"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	log.Store(l.With(zap.String("service", "orderpay")))
}

// L returns the global logger, initializing it from APP_ENV on first use.
func L() *zap.Logger {
	if l := log.Load(); l != nil {
		return l
	}
	lazyInit.Do(func() {
		if log.Load() == nil {
			Init(os.Getenv("APP_ENV"))
		}
	})
	return log.Load()
}

// Replace swaps the global logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	prev := log.Swap(l)
	return func() { log.Store(prev) }
}

func Sync() {
	if l := log.Load(); l != nil {
		_ = l.Sync()
	}
}
