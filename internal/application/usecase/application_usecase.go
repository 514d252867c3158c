package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/repository"
	"jobtrack-backend/pkg/fuzzy"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListFilter selects a page of applications
type ListFilter struct {
	Status *domain.Status
	Query  string
	Limit  int
	Offset int
}

// ApplicationUsecase serves read access, follow-ups and exports
type ApplicationUsecase struct {
	repo   repository.ApplicationRepository
	logger *zap.Logger
}

func NewApplicationUsecase(repo repository.ApplicationRepository, logger *zap.Logger) *ApplicationUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationUsecase{repo: repo, logger: logger.Named("applications")}
}

// ListApplications returns one page of applications. With a query, results
// are fuzzy-matched on company, role and location and ordered by relevance.
func (u *ApplicationUsecase) ListApplications(ctx context.Context, filter ListFilter) ([]*domain.Application, int64, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := strings.TrimSpace(filter.Query)
	if query == "" {
		return u.repo.FindApplications(ctx, filter.Status, limit, offset)
	}

	apps, err := u.repo.ListApplications(ctx)
	if err != nil {
		return nil, 0, err
	}

	type scoredApplication struct {
		app   *domain.Application
		score float64
	}

	threshold := fuzzy.Threshold(query)
	matched := make([]scoredApplication, 0)
	for _, app := range apps {
		if filter.Status != nil && app.Status != *filter.Status {
			continue
		}
		if !fuzzy.FuzzyMatch(query, app.Company, threshold) &&
			!fuzzy.FuzzyMatch(query, app.RoleTitle, threshold) &&
			!fuzzy.FuzzyMatch(query, app.Location, threshold) {
			continue
		}
		score := fuzzy.CalculateRelevanceScore(query, app.Company, app.RoleTitle, app.Location)
		if score > 0 {
			matched = append(matched, scoredApplication{app: app, score: score})
		}
	}

	// Sort by relevance score (highest first), then by activity (newest first)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		if !matched[i].app.LastEventAt.Equal(matched[j].app.LastEventAt) {
			return matched[i].app.LastEventAt.After(matched[j].app.LastEventAt)
		}
		return matched[i].app.ID < matched[j].app.ID
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*domain.Application{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]*domain.Application, 0, end-offset)
	for _, m := range matched[offset:end] {
		page = append(page, m.app)
	}
	return page, total, nil
}

// GetApplication returns an application with its event log
func (u *ApplicationUsecase) GetApplication(ctx context.Context, id string) (*domain.ApplicationWithEvents, error) {
	app, err := u.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, domain.ErrApplicationNotFound
	}

	events, err := u.repo.ListEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ApplicationWithEvents{Application: app, Events: events}, nil
}

// SetFollowUp sets or clears the follow-up date of an application
func (u *ApplicationUsecase) SetFollowUp(ctx context.Context, id string, date *time.Time) error {
	if err := u.repo.SetFollowUp(ctx, id, date); err != nil {
		return fmt.Errorf("set follow-up for %s: %w", id, err)
	}
	u.logger.Info("follow-up updated", zap.String("application_id", id), zap.Timep("date", date))
	return nil
}
