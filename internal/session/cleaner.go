package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"gatekeeper/internal/repository"
)

const purgeTimeout = 30 * time.Second

// Cleaner periodically deletes expired session records.
type Cleaner struct {
	sessions repository.SessionRepository
	logger   *logrus.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// NewCleaner schedules a purge on spec, any expression accepted by
// robfig/cron such as "@every 5m".
func NewCleaner(repo repository.SessionRepository, spec string, logger *logrus.Logger) (*Cleaner, error) {
	if logger == nil {
		logger = logrus.New()
	}
	c := &Cleaner{
		sessions: repo,
		logger:   logger,
		cron:     cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		now:      time.Now,
	}
	if _, err := c.cron.AddFunc(spec, c.run); err != nil {
		return nil, fmt.Errorf("schedule session cleanup %q: %w", spec, err)
	}
	return c, nil
}

func (c *Cleaner) Start() {
	c.cron.Start()
}

// Stop halts the schedule and waits for a running purge to finish.
func (c *Cleaner) Stop() {
	<-c.cron.Stop().Done()
}

// Purge deletes sessions that expired before now.
func (c *Cleaner) Purge(ctx context.Context) (int64, error) {
	return c.sessions.DeleteExpired(ctx, c.now())
}

func (c *Cleaner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := c.Purge(ctx)
	if err != nil {
		c.logger.Warnf("purge expired sessions: %v", err)
		return
	}
	if n > 0 {
		c.logger.WithField("count", n).Info("purged expired sessions")
	}
}
