package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var zapLogLevelMapping = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

type zapLogger struct {
	cfg    *LoggerConfig
	logger *zap.SugaredLogger
}

func newZapLogger(cfg *LoggerConfig) *zapLogger {
	return &zapLogger{cfg: cfg}
}

func (l *zapLogger) level() zapcore.Level {
	if lvl, ok := zapLogLevelMapping[l.cfg.Level]; ok {
		return lvl
	}
	return zapcore.DebugLevel
}

func (l *zapLogger) Init() {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if l.cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output(l.cfg)), l.level())
	l.logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).
		Sugar().
		With(string(AppName), "spinwheel", string(LoggerName), "zap")
}

func prepareZapParams(cat Category, sub SubCategory, extra map[ExtraKey]any) []any {
	if extra == nil {
		extra = make(map[ExtraKey]any, 2)
	}
	extra["Category"] = cat
	extra["SubCategory"] = sub
	return logParamsToZapParams(extra)
}

func (l *zapLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Debugw(msg, prepareZapParams(cat, sub, extra)...)
}

func (l *zapLogger) Debugf(template string, args ...any) {
	l.logger.Debugf(template, args...)
}

func (l *zapLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Infow(msg, prepareZapParams(cat, sub, extra)...)
}

func (l *zapLogger) Infof(template string, args ...any) {
	l.logger.Infof(template, args...)
}

func (l *zapLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Warnw(msg, prepareZapParams(cat, sub, extra)...)
}

func (l *zapLogger) Warnf(template string, args ...any) {
	l.logger.Warnf(template, args...)
}

func (l *zapLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Errorw(msg, prepareZapParams(cat, sub, extra)...)
}

func (l *zapLogger) Errorf(template string, args ...any) {
	l.logger.Errorf(template, args...)
}

func (l *zapLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Fatalw(msg, prepareZapParams(cat, sub, extra)...)
}

func (l *zapLogger) Fatalf(template string, args ...any) {
	l.logger.Fatalf(template, args...)
}

func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}
