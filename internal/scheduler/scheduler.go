package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the periodic transcript report.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	logger     *zap.Logger
	reportFunc func(ctx context.Context) error
}

func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

func (s *Scheduler) SetReportFunction(f func(ctx context.Context) error) {
	s.reportFunc = f
}

// Start registers the report under a standard 5-field cron spec (UTC).
// An empty spec leaves the scheduler idle.
func (s *Scheduler) Start(spec string) error {
	if s.reportFunc == nil || spec == "" {
		s.logger.Info("report schedule not configured, scheduler idle")
		return nil
	}

	_, err := s.cron.AddFunc(spec, s.runReport)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", spec))
	return nil
}

func (s *Scheduler) runReport() {
	s.logger.Debug("running scheduled report")
	if err := s.reportFunc(s.ctx); err != nil {
		s.logger.Error("scheduled report failed", zap.Error(err))
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
