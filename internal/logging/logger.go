package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv overrides the minimum level of every logger built here.
const LevelEnv = "HYPE_LOG_LEVEL"

// New returns a logger that appends JSON to logPath and mirrors
// human-readable lines to stderr. Entries carry service and pid.
func New(logPath, service string) (*zap.Logger, error) {
	file, err := openLog(logPath)
	if err != nil {
		return nil, err
	}
	enc, lvl := encoderConfig(), level()
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(enc), file, lvl),
		zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), lvl),
	)
	return zap.New(core, fields(service)), nil
}

// NewFileOnly is New without the stderr mirror, for processes that own the
// terminal.
func NewFileOnly(logPath, service string) (*zap.Logger, error) {
	file, err := openLog(logPath)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), file, level())
	return zap.New(core, fields(service)), nil
}

func openLog(path string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(os.Getenv(LevelEnv))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func fields(service string) zap.Option {
	return zap.Fields(zap.String("service", service), zap.Int("pid", os.Getpid()))
}
