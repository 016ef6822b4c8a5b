package logging

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Init()

	Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Debugf(template string, args ...any)

	Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Infof(template string, args ...any)

	Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Warnf(template string, args ...any)

	Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Errorf(template string, args ...any)

	Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Fatalf(template string, args ...any)

	Sync() error
}

type LoggerConfig struct {
	FilePath string
	Encoding string
	Level    string
	Logger   string
}

func NewLogger(cfg *LoggerConfig) Logger {
	var l Logger
	switch cfg.Logger {
	case "zap", "":
		l = newZapLogger(cfg)
	case "zerolog":
		l = newZeroLogger(cfg)
	default:
		panic("logger not supported: supported loggers: [zap, zerolog]")
	}

	l.Init()
	return l
}

// output writes to stdout and, when a file path is configured, to a rotated file as well.
func output(cfg *LoggerConfig) io.Writer {
	if cfg.FilePath == "" {
		return os.Stdout
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.FilePath, "spinwheel.log"),
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}

	return io.MultiWriter(os.Stdout, rotated)
}
