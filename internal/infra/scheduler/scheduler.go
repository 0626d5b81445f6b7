package scheduler

import (
	"context"
	"fmt"
	"time"

	"studio_alert_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AlertJobs is the part of the alert service the scheduler drives.
type AlertJobs interface {
	Refresh(ctx context.Context) (app.Snapshot, error)
	PushNew(ctx context.Context) error
	SendDigest(ctx context.Context) error
	Close()
}

const (
	refreshTimeout = 2 * time.Minute
	digestTimeout  = 5 * time.Minute
)

// AlertScheduler owns the periodic refresh. Start runs one refresh right away,
// Stop guarantees no refresh publishes afterwards.
type AlertScheduler struct {
	cronEngine      *cron.Cron
	alerts          AlertJobs
	logger          *logrus.Entry
	cronSpecRefresh string
	cronSpecDigest  string

	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewAlertScheduler(
	alerts AlertJobs,
	logger *logrus.Entry,
	cronSpecRefresh string, // e.g., "@every 5m"
	cronSpecDigest string, // e.g., "0 9 * * *" (9 AM daily)
) *AlertScheduler {
	return &AlertScheduler{
		// SkipIfStillRunning keeps a slow backend from stacking refreshes.
		cronEngine: cron.New(
			cron.WithLocation(time.Local),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		alerts:          alerts,
		logger:          logger.WithField("component", "scheduler"),
		cronSpecRefresh: cronSpecRefresh,
		cronSpecDigest:  cronSpecDigest,
	}
}

// Start registers the jobs, refreshes once and starts the cron engine.
func (s *AlertScheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting alert scheduler...")
	s.baseCtx, s.cancel = context.WithCancel(ctx)

	if _, err := s.cronEngine.AddFunc(s.cronSpecRefresh, s.RunRefresh); err != nil {
		s.cancel()
		return fmt.Errorf("could not add refresh cron job %q: %w", s.cronSpecRefresh, err)
	}
	if _, err := s.cronEngine.AddFunc(s.cronSpecDigest, s.RunDigest); err != nil {
		s.cancel()
		return fmt.Errorf("could not add digest cron job %q: %w", s.cronSpecDigest, err)
	}

	s.RunRefresh()

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"refresh_spec": s.cronSpecRefresh,
		"digest_spec":  s.cronSpecDigest,
	}).Info("Alert scheduler started with jobs.")
	return nil
}

// RunRefresh rebuilds the alert board and pushes alerts subscribers have not seen.
func (s *AlertScheduler) RunRefresh() {
	ctx, cancel := context.WithTimeout(s.baseCtx, refreshTimeout)
	defer cancel()

	s.logger.Debug("Refresh job triggered.")
	if _, err := s.alerts.Refresh(ctx); err != nil {
		// The service logs and publishes failures; superseded runs have nothing to push.
		return
	}
	if err := s.alerts.PushNew(ctx); err != nil {
		s.logger.WithError(err).Error("Error while pushing new alerts")
	}
}

func (s *AlertScheduler) RunDigest() {
	ctx, cancel := context.WithTimeout(s.baseCtx, digestTimeout)
	defer cancel()

	s.logger.Info("Digest job triggered.")
	if err := s.alerts.SendDigest(ctx); err != nil {
		s.logger.WithError(err).Error("Error while sending digest")
	}
}

// Stop halts the cron engine, waits for running jobs and closes the alert service.
func (s *AlertScheduler) Stop() {
	s.logger.Info("Stopping alert scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.alerts.Close()
	s.logger.Info("Alert scheduler gracefully stopped.")
}
