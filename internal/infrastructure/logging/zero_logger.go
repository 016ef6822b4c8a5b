package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zeroLogLevelMapping = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
	"fatal": zerolog.FatalLevel,
}

type zeroLogger struct {
	cfg    *LoggerConfig
	logger zerolog.Logger
}

func newZeroLogger(cfg *LoggerConfig) *zeroLogger {
	return &zeroLogger{cfg: cfg}
}

func (l *zeroLogger) level() zerolog.Level {
	if lvl, ok := zeroLogLevelMapping[l.cfg.Level]; ok {
		return lvl
	}
	return zerolog.DebugLevel
}

func (l *zeroLogger) Init() {
	zerolog.TimeFieldFormat = time.RFC3339

	w := output(l.cfg)
	if l.cfg.Encoding == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	l.logger = zerolog.New(w).
		Level(l.level()).
		With().
		Timestamp().
		Str(string(AppName), "spinwheel").
		Str(string(LoggerName), "zerolog").
		Logger()
}

func (l *zeroLogger) event(e *zerolog.Event, cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	e.Str("Category", string(cat)).
		Str("SubCategory", string(sub)).
		Fields(logParamsToZeroParams(extra)).
		Msg(msg)
}

func (l *zeroLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Debug(), cat, sub, msg, extra)
}

func (l *zeroLogger) Debugf(template string, args ...any) {
	l.logger.Debug().Msg(fmt.Sprintf(template, args...))
}

func (l *zeroLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Info(), cat, sub, msg, extra)
}

func (l *zeroLogger) Infof(template string, args ...any) {
	l.logger.Info().Msg(fmt.Sprintf(template, args...))
}

func (l *zeroLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Warn(), cat, sub, msg, extra)
}

func (l *zeroLogger) Warnf(template string, args ...any) {
	l.logger.Warn().Msg(fmt.Sprintf(template, args...))
}

func (l *zeroLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Error(), cat, sub, msg, extra)
}

func (l *zeroLogger) Errorf(template string, args ...any) {
	l.logger.Error().Msg(fmt.Sprintf(template, args...))
}

func (l *zeroLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.event(l.logger.Fatal(), cat, sub, msg, extra)
}

func (l *zeroLogger) Fatalf(template string, args ...any) {
	l.logger.Fatal().Msg(fmt.Sprintf(template, args...))
}

func (l *zeroLogger) Sync() error {
	return nil
}
