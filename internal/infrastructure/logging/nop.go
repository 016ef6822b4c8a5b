package logging

import "go.uber.org/zap"

// NewNop returns a zap backed logger that discards everything. Used in tests.
func NewNop() Logger {
	return &zapLogger{cfg: &LoggerConfig{}, logger: zap.NewNop().Sugar()}
}
