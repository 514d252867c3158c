package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobtrack-backend/internal/application/domain"
)

// engine-owned columns replaced on upsert
var upsertColumns = []string{
	"company", "role_title", "location", "job_url", "status", "status_confidence",
	"applied_date", "source", "notes", "last_event_at", "updated_at",
}

// gormApplicationRepository implements ApplicationRepository using GORM
type gormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GORM-based ApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &gormApplicationRepository{db: db}
}

func (r *gormApplicationRepository) GetApplication(ctx context.Context, id string) (*domain.Application, error) {
	var app domain.Application
	err := r.db.WithContext(ctx).Where("application_id = ?", id).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

func (r *gormApplicationRepository) ListApplications(ctx context.Context) ([]*domain.Application, error) {
	var apps []*domain.Application
	err := r.db.WithContext(ctx).Order("application_id ASC").Find(&apps).Error
	return apps, err
}

func (r *gormApplicationRepository) FindApplications(ctx context.Context, status *domain.Status, limit, offset int) ([]*domain.Application, int64, error) {
	var apps []*domain.Application
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Application{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	// Count total
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("last_event_at DESC, application_id ASC").
		Limit(limit).Offset(offset).Find(&apps).Error

	return apps, total, err
}

func (r *gormApplicationRepository) UpsertApplication(ctx context.Context, app *domain.Application) error {
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now

	// Atomic upsert: INSERT ... ON CONFLICT (application_id) DO UPDATE
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(app).Error
}

func (r *gormApplicationRepository) InsertEventIfAbsent(ctx context.Context, ev *domain.Event, dedupKey string) (bool, error) {
	db := r.db.WithContext(ctx)

	var lastID int
	err := db.Model(&domain.Event{}).
		Where("application_id = ?", ev.ApplicationID).
		Select("COALESCE(MAX(event_id), 0)").
		Scan(&lastID).Error
	if err != nil {
		return false, err
	}

	ev.EventID = lastID + 1
	ev.DedupKey = dedupKey
	ev.EventDate = ev.EventDate.UTC()
	ev.CreatedAt = time.Now().UTC()

	// Compare-and-insert: INSERT ... ON CONFLICT (dedup_key) DO NOTHING
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(ev)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		ev.EventID = 0
		return false, nil
	}
	return true, nil
}

func (r *gormApplicationRepository) FindEvidenceOwner(ctx context.Context, evidenceKey string) (string, error) {
	if evidenceKey == "" {
		return "", nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Event{}).
		Where("evidence_key = ?", evidenceKey).
		Order("application_id ASC").Limit(1).
		Pluck("application_id", &ids).Error
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

func (r *gormApplicationRepository) ListEvents(ctx context.Context, applicationID string) ([]*domain.Event, error) {
	var events []*domain.Event
	err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).
		Order("event_id ASC").Find(&events).Error
	return events, err
}

func (r *gormApplicationRepository) ListAllEvents(ctx context.Context) ([]*domain.Event, error) {
	var events []*domain.Event
	err := r.db.WithContext(ctx).Order("application_id ASC, event_id ASC").Find(&events).Error
	return events, err
}

func (r *gormApplicationRepository) SetFollowUp(ctx context.Context, id string, date *time.Time) error {
	var value interface{}
	if date != nil {
		value = date.UTC()
	}
	result := r.db.WithContext(ctx).Model(&domain.Application{}).Where("application_id = ?", id).
		Updates(map[string]interface{}{
			"next_follow_up_date":   value,
			"follow_up_notified_at": nil,
			"updated_at":            time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrApplicationNotFound
	}
	return nil
}

func (r *gormApplicationRepository) FindDueFollowUps(ctx context.Context, now time.Time) ([]*domain.Application, error) {
	var apps []*domain.Application
	err := r.db.WithContext(ctx).
		Where("next_follow_up_date IS NOT NULL AND next_follow_up_date <= ? AND follow_up_notified_at IS NULL AND status != ?",
			now.UTC(), domain.StatusRejected).
		Order("next_follow_up_date ASC").
		Find(&apps).Error
	return apps, err
}

func (r *gormApplicationRepository) MarkFollowUpNotified(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Application{}).Where("application_id = ?", id).
		Updates(map[string]interface{}{
			"follow_up_notified_at": at.UTC(),
			"updated_at":            time.Now().UTC(),
		}).Error
}

func (r *gormApplicationRepository) WithinTransaction(ctx context.Context, fn func(repo ApplicationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormApplicationRepository{db: tx})
	})
}
