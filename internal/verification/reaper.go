package verification

import (
	"context"
	"log/slog"
	"time"

	"github.com/openlistings/claimsvc/internal/metrics"
	"github.com/robfig/cron/v3"
)

type expiredDeleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Reaper periodically removes expired verification entries. Expiry is
// already enforced at consume time; the reaper only keeps the table and the
// in-process map from accumulating abandoned flows.
type Reaper struct {
	store    expiredDeleter
	schedule cron.Schedule
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewReaper(store expiredDeleter, scheduleExpr string, logger *slog.Logger) (*Reaper, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, err
	}
	return &Reaper{
		store:    store,
		schedule: schedule,
		logger:   logger.With("component", "reaper"),
	}, nil
}

func (r *Reaper) Start(ctx context.Context) {
	r.cron = cron.New()
	r.cron.Schedule(r.schedule, cron.FuncJob(func() { r.reap(ctx) }))
	r.cron.Start()
	r.logger.Info("reaper started")

	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
		r.logger.Info("reaper shut down")
	}()
}

func (r *Reaper) reap(ctx context.Context) {
	start := time.Now()
	n, err := r.store.DeleteExpired(ctx, start)
	metrics.ReaperCycleDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		r.logger.ErrorContext(ctx, "reap expired codes", "error", err)
		return
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "reaped expired codes", "count", n)
	}
}
