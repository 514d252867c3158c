package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/repository"
	"jobtrack-backend/pkg/config"
	"jobtrack-backend/pkg/database"
)

func newTestRepository(t *testing.T) repository.ApplicationRepository {
	t.Helper()
	db, err := database.Open("sqlite://"+filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &domain.Application{}, &domain.Event{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return repository.NewGormApplicationRepository(db)
}

func newTestReconciler(t *testing.T, repo repository.ApplicationRepository) *Reconciler {
	t.Helper()
	rules, err := config.DefaultRules()
	require.NoError(t, err)
	r, err := NewReconciler(repo, rules, 0, zap.NewNop())
	require.NoError(t, err)
	return r
}

func jan(d int) time.Time {
	return time.Date(2024, 1, d, 9, 0, 0, 0, time.UTC)
}

var (
	confirmation = domain.RawMessage{
		ID:         "msg-a",
		Subject:    "Thank you for applying to Acme for Backend Engineer",
		Sender:     "jobs@acme.io",
		ReceivedAt: jan(1),
	}
	rejection = domain.RawMessage{
		ID:         "msg-b",
		Subject:    "Unfortunately we will not be moving forward with your Backend Engineer application at Acme",
		Sender:     "jobs@acme.io",
		ReceivedAt: jan(10),
	}
)

func TestReconcileMessages_ExampleScenario(t *testing.T) {
	repo := newTestRepository(t)
	r := newTestReconciler(t, repo)
	ctx := context.Background()

	summary, err := r.ReconcileMessages(ctx, []domain.RawMessage{confirmation, rejection})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Received)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 2, summary.EventsAdded)
	assert.Zero(t, summary.Skipped)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Transitions, 1)
	assert.Equal(t, domain.StatusApplied, summary.Transitions[0].From)
	assert.Equal(t, domain.StatusRejected, summary.Transitions[0].To)

	apps, err := repo.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)

	app := apps[0]
	assert.Equal(t, "Acme", app.Company)
	assert.Equal(t, "Backend Engineer", app.RoleTitle)
	assert.Equal(t, domain.StatusRejected, app.Status)
	assert.Equal(t, domain.ConfidenceHigh, app.StatusConfidence)
	assert.Equal(t, "email", app.Source)

	events, err := repo.ListEvents(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventApplied, events[0].EventType)
	assert.Equal(t, domain.ConfidenceMedium, events[0].Confidence)
	assert.Equal(t, domain.EventRejected, events[1].EventType)
}

func TestReconcileMessages_Idempotent(t *testing.T) {
	repo := newTestRepository(t)
	r := newTestReconciler(t, repo)
	ctx := context.Background()
	batch := []domain.RawMessage{confirmation, rejection}

	_, err := r.ReconcileMessages(ctx, batch)
	require.NoError(t, err)
	before, err := repo.ListApplications(ctx)
	require.NoError(t, err)

	summary, err := r.ReconcileMessages(ctx, batch)
	require.NoError(t, err)
	assert.Zero(t, summary.Created)
	assert.Zero(t, summary.Updated)
	assert.Zero(t, summary.EventsAdded)
	assert.Equal(t, 2, summary.Duplicates)
	assert.Empty(t, summary.Transitions)

	after, err := repo.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, before[0].Status, after[0].Status)

	events, err := repo.ListAllEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestReconcileMessages_IdempotentAfterNewCandidate(t *testing.T) {
	repo := newTestRepository(t)
	r := newTestReconciler(t, repo)
	ctx := context.Background()

	first, err := r.ReconcileCaptures(ctx, []domain.Capture{{
		Company: "Acme", RoleTitle: "Backend Engineer",
		JobURL: "https://jobs.acme.io/1", CapturedAt: "2024-01-01",
	}})
	require.NoError(t, err)
	require.Equal(t, 1, first.Created)
	apps, err := repo.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	original := apps[0].ID

	email := domain.RawMessage{
		ID:         "msg-jan3",
		Subject:    "Thank you for applying to Acme for Backend Engineer",
		Sender:     "jobs@acme.io",
		ReceivedAt: jan(3),
	}
	summary, err := r.ReconcileMessages(ctx, []domain.RawMessage{email})
	require.NoError(t, err)
	require.Equal(t, 1, summary.EventsAdded)
	require.Zero(t, summary.Created)

	// a second posting for the same title, now also inside the window
	second, err := r.ReconcileCaptures(ctx, []domain.Capture{{
		Company: "Acme", RoleTitle: "Backend Engineer",
		JobURL: "https://jobs.acme.io/2", CapturedAt: "2024-01-05",
	}})
	require.NoError(t, err)
	require.Equal(t, 1, second.Created)

	before, err := repo.ListAllEvents(ctx)
	require.NoError(t, err)
	require.Len(t, before, 3)

	summary, err = r.ReconcileMessages(ctx, []domain.RawMessage{email})
	require.NoError(t, err)
	assert.Zero(t, summary.EventsAdded)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Zero(t, summary.AmbiguousMatches)

	after, err := repo.ListAllEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 3)

	var owners []string
	for _, ev := range after {
		if ev.EvidenceSource == domain.SourceEmail {
			owners = append(owners, ev.ApplicationID)
		}
	}
	require.Len(t, owners, 1)
	assert.Equal(t, original, owners[0])
}

func TestReconcileMessages_ProcessesOldestFirst(t *testing.T) {
	repo := newTestRepository(t)
	r := newTestReconciler(t, repo)
	ctx := context.Background()

	summary, err := r.ReconcileMessages(ctx, []domain.RawMessage{rejection, confirmation})
	require.NoError(t, err)
	require.Len(t, summary.Transitions, 1)
	assert.Equal(t, domain.StatusApplied, summary.Transitions[0].From)

	apps, err := repo.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].AppliedDate)
	assert.True(t, jan(1).Equal(*apps[0].AppliedDate), "the oldest email creates the application")
	assert.Equal(t, domain.StatusRejected, apps[0].Status)
}

func TestReconcileMessages_DistinctApplicationsOutsideWindow(t *testing.T) {
	repo := newTestRepository(t)
	r := newTestReconciler(t, repo)
	ctx := context.Background()

	later := confirmation
	later.ID = "msg-c"
	later.ReceivedAt = jan(21)

	summary, err := r.ReconcileMessages(ctx, []domain.RawMessage{confirmation, later})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Created)

	apps, err := repo.ListApplications(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestReconcileMessages_SkipsAndIgnores(t *testing.T) {
	repo := newTestRepository(t)
	r := newTestReconciler(t, repo)

	undated := rejection
	undated.ID = "msg-undated"
	undated.ReceivedAt = time.Time{}

	newsletter := domain.RawMessage{ID: "msg-news", Subject: "Your weekly digest", Body: "Top stories", ReceivedAt: jan(2)}

	summary, err := r.ReconcileMessages(context.Background(), []domain.RawMessage{undated, newsletter, confirmation})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Received)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Ignored)
	assert.Equal(t, 1, summary.Created)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 0, summary.Errors[0].Index)
	assert.Equal(t, "msg-undated", summary.Errors[0].Ref)
}

func TestReconcileCaptures_MergesWithEmail(t *testing.T) {
	repo := newTestRepository(t)
	r := newTestReconciler(t, repo)
	ctx := context.Background()

	captures := []domain.Capture{{
		Company:     "Acme",
		RoleTitle:   "Backend Engineer",
		Location:    "Berlin",
		Source:      "LinkedIn",
		JobURL:      "https://jobs.acme.io/42?utm_source=linkedin",
		Notes:       "referral from Sam",
		AppliedDate: "2024-01-01",
		CapturedAt:  "2024-01-01T08:00:00Z",
	}}
	summary, err := r.ReconcileCaptures(ctx, captures)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)

	_, err = r.ReconcileMessages(ctx, []domain.RawMessage{confirmation})
	require.NoError(t, err)

	followUp := []domain.Capture{{
		Company:    "ACME Corporation",
		RoleTitle:  "Senior Backend Engineer",
		JobURL:     "https://JOBS.acme.io/42/",
		Notes:      "recruiter call booked",
		Status:     "interview",
		CapturedAt: "2024-01-05 10:00:00",
	}}
	summary, err = r.ReconcileCaptures(ctx, followUp)
	require.NoError(t, err)
	assert.Zero(t, summary.Created)
	assert.Equal(t, 1, summary.Updated)

	apps, err := repo.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)

	app := apps[0]
	assert.Equal(t, "Acme", app.Company)
	assert.Equal(t, "Backend Engineer", app.RoleTitle)
	assert.Equal(t, "Berlin", app.Location)
	assert.Equal(t, "LinkedIn", app.Source)
	assert.Equal(t, domain.StatusInterview, app.Status)
	assert.Equal(t, domain.ConfidenceHigh, app.StatusConfidence)
	assert.Equal(t, "referral from Sam\nrecruiter call booked", app.Notes)

	events, err := repo.ListEvents(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventOther, events[0].EventType)
	assert.Equal(t, domain.SourceManualImport, events[0].EvidenceSource)

	// re-importing does not duplicate events or notes
	summary, err = r.ReconcileCaptures(ctx, append(captures, followUp...))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Duplicates)

	got, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "referral from Sam\nrecruiter call booked", got.Notes)
}

func TestReconcileCaptures_Malformed(t *testing.T) {
	r := newTestReconciler(t, newTestRepository(t))

	summary, err := r.ReconcileCaptures(context.Background(), []domain.Capture{
		{Company: "Acme", CapturedAt: "yesterday-ish"},
		{Notes: "nothing to identify"},
		{Company: "Globex"},
		{Company: "Initech", RoleTitle: "SRE", AppliedDate: "15.01.2024"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 1, summary.Created)
	for _, e := range summary.Errors {
		assert.NotEmpty(t, e.Reason)
	}
}

func TestReconcile_TransitionCallback(t *testing.T) {
	r := newTestReconciler(t, newTestRepository(t))

	var got []domain.StatusTransition
	r.SetTransitionCallback(func(ctx context.Context, transitions []domain.StatusTransition) {
		got = append(got, transitions...)
	})

	_, err := r.ReconcileMessages(context.Background(), []domain.RawMessage{confirmation, rejection})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusRejected, got[0].To)
	assert.Equal(t, "Acme", got[0].Company)
}

type failingRepository struct {
	repository.ApplicationRepository
}

func (failingRepository) ListApplications(ctx context.Context) ([]*domain.Application, error) {
	return nil, errors.New("connection refused")
}

func TestReconcile_ListFailureIsFatal(t *testing.T) {
	r := newTestReconciler(t, failingRepository{})

	summary, err := r.ReconcileMessages(context.Background(), []domain.RawMessage{confirmation})
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Zero(t, summary.EventsAdded)
}

func TestReconcile_Cancelled(t *testing.T) {
	r := newTestReconciler(t, newTestRepository(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.ReconcileMessages(ctx, []domain.RawMessage{confirmation})
	assert.Error(t, err)
	require.NotNil(t, summary)
	assert.Zero(t, summary.EventsAdded)
}

func TestPreview(t *testing.T) {
	r := newTestReconciler(t, failingRepository{})

	c, fields, ok := r.Preview(confirmation.Subject, "", jan(1))
	require.True(t, ok)
	assert.Equal(t, domain.EventApplied, c.EventType)
	assert.Equal(t, "Acme", fields.Company)
	assert.Equal(t, "Backend Engineer", fields.RoleTitle)
}
