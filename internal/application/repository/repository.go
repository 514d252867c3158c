package repository

import (
	"context"
	"time"

	"jobtrack-backend/internal/application/domain"
)

// ApplicationRepository defines the storage collaborator of the
// reconciliation engine
type ApplicationRepository interface {
	// GetApplication finds an application by id. Returns nil, nil when absent.
	GetApplication(ctx context.Context, id string) (*domain.Application, error)

	// ListApplications returns every application ordered by id
	ListApplications(ctx context.Context) ([]*domain.Application, error)

	// FindApplications returns one page of applications, most recent activity
	// first, optionally filtered by status
	FindApplications(ctx context.Context, status *domain.Status, limit, offset int) ([]*domain.Application, int64, error)

	// UpsertApplication inserts or replaces the engine-owned fields of an
	// application. Follow-up fields are left untouched on update.
	UpsertApplication(ctx context.Context, app *domain.Application) error

	// InsertEventIfAbsent appends ev under dedupKey unless an event with the
	// same key exists. Reports whether the event was inserted. The event id
	// is assigned on insert.
	InsertEventIfAbsent(ctx context.Context, ev *domain.Event, dedupKey string) (bool, error)

	// FindEvidenceOwner returns the id of the application holding an event
	// with the given evidence key, or "" when none does.
	FindEvidenceOwner(ctx context.Context, evidenceKey string) (string, error)

	// ListEvents returns the events of one application in id order
	ListEvents(ctx context.Context, applicationID string) ([]*domain.Event, error)

	// ListAllEvents returns every event ordered by application and id
	ListAllEvents(ctx context.Context) ([]*domain.Event, error)

	// SetFollowUp sets or clears the user-owned follow-up date
	SetFollowUp(ctx context.Context, id string, date *time.Time) error

	// FindDueFollowUps finds applications whose follow-up date has passed
	// and has not been notified yet. Rejected applications are excluded.
	FindDueFollowUps(ctx context.Context, now time.Time) ([]*domain.Application, error)

	// MarkFollowUpNotified records that a follow-up reminder was sent
	MarkFollowUpNotified(ctx context.Context, id string, at time.Time) error

	// WithinTransaction runs fn against a repository bound to one
	// transaction. The transaction is rolled back when fn returns an error.
	WithinTransaction(ctx context.Context, fn func(repo ApplicationRepository) error) error
}
