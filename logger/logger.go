package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"patternscope/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a zap.Logger for the given log options. Stdout uses the
// configured encoding; the optional rotated file is always JSON.
func New(opts config.LogConfig) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoding := "json"
	if opts.Environment == "dev" || opts.Format == "console" {
		encoding = "console"
	}
	encoderCfg := encoderConfig(encoding)

	stdout := zapcore.NewCore(newEncoder(encoding, encoderCfg), zapcore.Lock(os.Stdout), lvl)
	cores := []zapcore.Core{stdout}

	if opts.OutputFile != "" {
		fileCore, err := fileCore(opts.OutputFile, lvl)
		if err != nil {
			return nil, err
		}
		cores = append(cores, fileCore)
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", "patternscope")),
	), nil
}

func fileCore(path string, lvl zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	})
	return zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, lvl), nil
}

func newEncoder(encoding string, cfg zapcore.EncoderConfig) zapcore.Encoder {
	if encoding == "console" {
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

func encoderConfig(format string) zapcore.EncoderConfig {
	if format == "console" {
		return zap.NewDevelopmentEncoderConfig()
	}
	return zap.NewProductionEncoderConfig()
}
