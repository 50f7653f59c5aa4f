package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL"`
	// Sink is a file path. Empty means human readable output to stdout.
	Sink string `yaml:"sink" envconfig:"LOG_SINK"`
}

func NewLogger(cfg Log, name string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.TimeKey = "time"

	var (
		enc  zapcore.Encoder
		sink zapcore.WriteSyncer
	)
	if cfg.Sink == "" {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
		sink = zapcore.Lock(os.Stdout)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
		ws, _, err := zap.Open(cfg.Sink)
		if err != nil {
			ws = zapcore.Lock(os.Stderr)
		}
		sink = ws
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(cfg.LogLevel))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).Named(name)
}
