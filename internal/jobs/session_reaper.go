package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
)

// Reaper deletes expired sessions from durable storage.
type Reaper interface {
	ReapExpired(ctx context.Context) (int64, error)
}

type SessionReaperJob struct {
	reaper   Reaper
	logger   logging.Logger
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSessionReaperJob(reaper Reaper, logger logging.Logger, interval time.Duration) *SessionReaperJob {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &SessionReaperJob{
		reaper:   reaper,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval until Stop is
// called or ctx is done.
func (j *SessionReaperJob) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info(logging.Session, logging.Reaper, "session reaper started", map[logging.ExtraKey]any{
		"interval": j.interval.String(),
	})

	j.runOnce(ctx)

	for {
		select {
		case <-ticker.C:
			j.runOnce(ctx)
		case <-j.stopChan:
			j.logger.Info(logging.Session, logging.Reaper, "session reaper stopped", nil)
			return
		case <-ctx.Done():
			j.logger.Info(logging.Session, logging.Reaper, "session reaper context cancelled", nil)
			return
		}
	}
}

func (j *SessionReaperJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
	})
}

func (j *SessionReaperJob) runOnce(ctx context.Context) {
	startTime := time.Now()

	n, err := j.reaper.ReapExpired(ctx)
	if err != nil {
		j.logger.Error(logging.Session, logging.Reaper, "session reaper failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
			logging.Latency:      time.Since(startTime).String(),
		})
		return
	}

	if n > 0 {
		j.logger.Info(logging.Session, logging.Reaper, "expired sessions removed", map[logging.ExtraKey]any{
			logging.Count:   n,
			logging.Latency: time.Since(startTime).String(),
		})
	}
}
