package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	iauth "github.com/lvaldez/padron/internal/auth"
	"github.com/lvaldez/padron/internal/services"
	"github.com/lvaldez/padron/pkg/logger"
)

const (
	defaultSchedule         = "@hourly"
	defaultRequestRetention = 90 * 24 * time.Hour
)

// Cleaner runs background maintenance: purging expired sessions and
// removing resolved deletion requests past the retention window.
// Requests still waiting on object cleanup are left untouched.
type Cleaner struct {
	sessions *iauth.SessionService
	requests *services.DeletionRequestService
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger

	schedule  string
	retention time.Duration
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the cleanup run.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithRequestRetention adjusts how long resolved deletion requests are kept.
func WithRequestRetention(retention time.Duration) Option {
	return func(cleaner *Cleaner) {
		if retention > 0 {
			cleaner.retention = retention
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil dependency
// results in the corresponding cleanup being skipped.
func NewCleaner(sessions *iauth.SessionService, requests *services.DeletionRequestService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		sessions:  sessions,
		requests:  requests,
		now:       time.Now,
		schedule:  defaultSchedule,
		retention: defaultRequestRetention,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.sessions == nil && c.requests == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used
// in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.sessions != nil {
		removed, err := c.sessions.DeleteExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("expired sessions removed", zap.Int64("count", removed))
		}
	}

	if c.requests != nil {
		removed, err := c.requests.PurgeResolved(ctx, c.now().Add(-c.retention))
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("resolved deletion requests purged", zap.Int64("count", removed))
		}
	}

	return errs
}
