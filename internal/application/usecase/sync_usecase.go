package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
)

// ErrMailSyncDisabled is returned when no mail provider is configured
var ErrMailSyncDisabled = errors.New("mail sync is not configured")

// SyncUsecase fetches a window of mail and reconciles it
type SyncUsecase struct {
	provider    domain.MailProvider
	reconciler  *Reconciler
	defaultDays int
	logger      *zap.Logger
	now         func() time.Time

	mu sync.Mutex
}

func NewSyncUsecase(provider domain.MailProvider, reconciler *Reconciler, defaultDays int, logger *zap.Logger) *SyncUsecase {
	if defaultDays <= 0 {
		defaultDays = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncUsecase{
		provider:    provider,
		reconciler:  reconciler,
		defaultDays: defaultDays,
		logger:      logger.Named("sync"),
		now:         time.Now,
	}
}

// Enabled reports whether a mail provider is configured
func (s *SyncUsecase) Enabled() bool {
	return s.provider != nil
}

// Sync reconciles the mail received during the last sinceDays days. Zero
// or negative selects the configured default. Syncs never overlap.
func (s *SyncUsecase) Sync(ctx context.Context, sinceDays int) (*domain.Summary, error) {
	if s.provider == nil {
		return nil, ErrMailSyncDisabled
	}
	if sinceDays <= 0 {
		sinceDays = s.defaultDays
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	until := s.now().UTC()
	since := until.AddDate(0, 0, -sinceDays)

	s.logger.Info("fetching messages", zap.Time("since", since), zap.Time("until", until))
	msgs, err := s.provider.FetchMessages(ctx, since, until)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	return s.reconciler.ReconcileMessages(ctx, msgs)
}
