package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const CleanupSchedule = "@every 10m"

// Purger: всё, у чего есть просроченные коды.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type CleanupJob struct {
	purgers map[string]Purger
	now     func() time.Time
	log     *zap.Logger
}

func NewCleanupJob(log *zap.Logger, purgers map[string]Purger) *CleanupJob {
	return &CleanupJob{purgers: purgers, now: time.Now, log: log}
}

// Run: ошибки одной таблицы не мешают остальным.
func (j *CleanupJob) Run(ctx context.Context) int64 {
	var total int64
	now := j.now()
	for name, p := range j.purgers {
		n, err := p.PurgeExpired(ctx, now)
		if err != nil {
			j.log.Error("[cron][cleanup] purge failed", zap.String("table", name), zap.Error(err))
			continue
		}
		if n > 0 {
			j.log.Info("[cron][cleanup] purged expired codes", zap.String("table", name), zap.Int64("rows", n))
		}
		total += n
	}
	return total
}

// Start: свой cron.Cron; остановить через Stop() при shutdown.
func (j *CleanupJob) Start(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = CleanupSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		j.Run(ctx)
	}); err != nil {
		return nil, err
	}
	c.Start()
	j.log.Info("[cron][cleanup] scheduler started", zap.String("schedule", schedule))
	return c, nil
}
