package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/repository"
)

// FollowUpNotifier delivers a follow-up reminder
type FollowUpNotifier interface {
	NotifyFollowUp(ctx context.Context, app *domain.Application) error
}

// Syncer runs a mail sync
type Syncer interface {
	Sync(ctx context.Context, sinceDays int) (*domain.Summary, error)
}

// runner is the ticker loop shared by the schedulers
type runner struct {
	name     string
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	started  bool
	done     chan struct{}
}

func newRunner(name string, interval time.Duration, logger *zap.Logger) *runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &runner{
		name:     name,
		interval: interval,
		logger:   logger.Named(name),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *runner) start(tick func(ctx context.Context)) {
	r.started = true
	r.logger.Info("scheduler started", zap.Duration("interval", r.interval))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-r.stopChan
		cancel()
	}()

	go func() {
		defer close(r.done)
		// Run immediately on start
		tick(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				tick(ctx)
			case <-r.stopChan:
				r.logger.Info("scheduler stopped")
				return
			}
		}
	}()
}

// stop signals the loop and waits for the running tick to finish
func (r *runner) stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	if r.started {
		<-r.done
	}
}

// FollowUpScheduler sends reminders for applications whose follow-up date
// has passed
type FollowUpScheduler struct {
	*runner
	repo     repository.ApplicationRepository
	notifier FollowUpNotifier
	now      func() time.Time
}

func NewFollowUpScheduler(repo repository.ApplicationRepository, notifier FollowUpNotifier, interval time.Duration, logger *zap.Logger) *FollowUpScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &FollowUpScheduler{
		runner:   newRunner("follow_up_scheduler", interval, logger),
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Start begins the scheduler loop
func (s *FollowUpScheduler) Start() {
	s.start(s.checkFollowUps)
}

// Stop gracefully stops the scheduler
func (s *FollowUpScheduler) Stop() {
	s.stop()
}

func (s *FollowUpScheduler) checkFollowUps(ctx context.Context) {
	now := s.now().UTC()

	apps, err := s.repo.FindDueFollowUps(ctx, now)
	if err != nil {
		s.logger.Error("failed to find due follow-ups", zap.Error(err))
		return
	}
	if len(apps) == 0 {
		return
	}

	s.logger.Info("sending follow-up reminders", zap.Int("count", len(apps)))
	for _, app := range apps {
		if ctx.Err() != nil {
			return
		}
		if err := s.notifier.NotifyFollowUp(ctx, app); err != nil {
			s.logger.Warn("follow-up reminder failed", zap.String("application_id", app.ID), zap.Error(err))
		}

		// Mark as notified regardless of success to avoid repeated pushes
		if err := s.repo.MarkFollowUpNotified(ctx, app.ID, now); err != nil {
			s.logger.Error("failed to mark follow-up notified", zap.String("application_id", app.ID), zap.Error(err))
		}
	}
}

// SyncScheduler runs a mail sync periodically
type SyncScheduler struct {
	*runner
	syncer    Syncer
	sinceDays int
}

func NewSyncScheduler(syncer Syncer, interval time.Duration, sinceDays int, logger *zap.Logger) *SyncScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SyncScheduler{
		runner:    newRunner("sync_scheduler", interval, logger),
		syncer:    syncer,
		sinceDays: sinceDays,
	}
}

// Start begins the scheduler loop
func (s *SyncScheduler) Start() {
	s.start(s.runSync)
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop() {
	s.stop()
}

func (s *SyncScheduler) runSync(ctx context.Context) {
	summary, err := s.syncer.Sync(ctx, s.sinceDays)
	if err != nil {
		s.logger.Error("scheduled sync failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled sync finished",
		zap.String("run_id", summary.RunID),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("events_added", summary.EventsAdded))
}
