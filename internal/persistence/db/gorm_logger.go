package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's query log into the application logger.
type GormLogger struct {
	logger        logging.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(logger logging.Logger, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		logger:        logger,
		level:         gormlogger.Warn,
		slowThreshold: slowThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	out := *l
	out.level = level
	return &out
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Info(logging.Postgres, logging.ExternalService, fmt.Sprintf(msg, args...), nil)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(logging.Postgres, logging.ExternalService, fmt.Sprintf(msg, args...), nil)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Error(logging.Postgres, logging.ExternalService, fmt.Sprintf(msg, args...), nil)
	}
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.Error(logging.Postgres, logging.ExternalService, "query failed", map[logging.ExtraKey]any{
			"sql":                sql,
			"rows":               rows,
			logging.Latency:      elapsed,
			logging.ErrorMessage: err.Error(),
		})
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warn(logging.Postgres, logging.ExternalService, "slow query", map[logging.ExtraKey]any{
			"sql":           sql,
			"rows":          rows,
			logging.Latency: elapsed,
		})
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.Debug(logging.Postgres, logging.ExternalService, "query", map[logging.ExtraKey]any{
			"sql":           sql,
			"rows":          rows,
			logging.Latency: elapsed,
		})
	}
}
