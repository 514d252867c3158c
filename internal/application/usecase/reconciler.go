package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobtrack-backend/internal/application/classifier"
	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/identity"
	"jobtrack-backend/internal/application/matcher"
	"jobtrack-backend/internal/application/merge"
	"jobtrack-backend/internal/application/repository"
	"jobtrack-backend/pkg/config"
)

// TransitionCallback is invoked after a run that changed statuses
type TransitionCallback func(ctx context.Context, transitions []domain.StatusTransition)

// Reconciler is the reconciliation driver. Runs are serialized: one run has
// exclusive access to the application set.
type Reconciler struct {
	repo       repository.ApplicationRepository
	classifier *classifier.Classifier
	extractor  *classifier.Extractor
	resolver   *matcher.Resolver
	engine     *merge.Engine
	normalizer *identity.Normalizer
	logger     *zap.Logger

	mu           sync.Mutex
	onTransition TransitionCallback
}

// NewReconciler builds the engine components from rules
func NewReconciler(repo repository.ApplicationRepository, rules *config.Rules, window time.Duration, logger *zap.Logger) (*Reconciler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cls, err := classifier.New(rules, logger)
	if err != nil {
		return nil, err
	}
	ext, err := classifier.NewExtractor(rules)
	if err != nil {
		return nil, err
	}
	pipeline, err := domain.ParsePipeline(rules.Pipeline)
	if err != nil {
		return nil, err
	}
	normalizer := identity.NewNormalizer(rules.TrackingParams)

	return &Reconciler{
		repo:       repo,
		classifier: cls,
		extractor:  ext,
		resolver:   matcher.NewResolver(normalizer, window, logger),
		engine:     merge.NewEngine(pipeline, rules.NoteSeparator),
		normalizer: normalizer,
		logger:     logger.Named("reconciler"),
	}, nil
}

// SetTransitionCallback sets the callback invoked with the status
// transitions of each run
func (r *Reconciler) SetTransitionCallback(callback TransitionCallback) {
	r.onTransition = callback
}

// Preview classifies and extracts one email without touching the store
func (r *Reconciler) Preview(subject, body string, receivedAt time.Time) (*classifier.Classification, classifier.Fields, bool) {
	c, ok := r.classifier.Classify(subject, body, receivedAt)
	return c, r.extractor.Extract(subject, body), ok
}

type pendingItem struct {
	index    int
	ref      string
	evidence domain.Evidence
}

// ReconcileMessages reconciles a batch of emails
func (r *Reconciler) ReconcileMessages(ctx context.Context, msgs []domain.RawMessage) (*domain.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := newSummary(len(msgs))
	items := make([]pendingItem, 0, len(msgs))
	for i, msg := range msgs {
		ev, ok, err := emailEvidence(r.classifier, r.extractor, msg)
		if err != nil {
			r.skip(summary, i, msg.ID, err)
			continue
		}
		if !ok {
			summary.Ignored++
			continue
		}
		items = append(items, pendingItem{index: i, ref: msg.ID, evidence: ev})
	}
	return r.run(ctx, summary, items)
}

// ReconcileCaptures reconciles a batch of manual captures
func (r *Reconciler) ReconcileCaptures(ctx context.Context, captures []domain.Capture) (*domain.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := newSummary(len(captures))
	items := make([]pendingItem, 0, len(captures))
	for i, c := range captures {
		ev, err := captureEvidence(c)
		ref := c.JobURL
		if ref == "" {
			ref = c.Company
		}
		if err != nil {
			r.skip(summary, i, ref, err)
			continue
		}
		items = append(items, pendingItem{index: i, ref: ref, evidence: ev})
	}
	return r.run(ctx, summary, items)
}

func newSummary(received int) *domain.Summary {
	return &domain.Summary{RunID: uuid.New().String(), Received: received}
}

func (r *Reconciler) run(ctx context.Context, summary *domain.Summary, items []pendingItem) (*domain.Summary, error) {
	apps, err := r.repo.ListApplications(ctx)
	if err != nil {
		return summary, fmt.Errorf("list applications: %w", err)
	}

	// Oldest first so transitions apply chronologically
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].evidence.Date.Before(items[j].evidence.Date)
	})

	state := newRunState(apps)
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			summary.Updated = len(state.updated)
			r.finish(ctx, summary)
			return summary, err
		}
		if err := r.apply(ctx, it, state, summary); err != nil {
			r.skip(summary, it.index, it.ref, err)
		}
	}

	summary.Updated = len(state.updated)
	r.finish(ctx, summary)
	return summary, nil
}

func (r *Reconciler) apply(ctx context.Context, it pendingItem, state *runState, summary *domain.Summary) error {
	ev := it.evidence
	evidenceKey := identity.EvidenceKey(ev.Source, it.ref, ev.EventType, ev.Date, ev.EvidenceText)

	// Evidence seen in an earlier run stays with the application it was
	// attached to, even if the resolver would now pick another one.
	owner, err := r.repo.FindEvidenceOwner(ctx, evidenceKey)
	if err != nil {
		return fmt.Errorf("find evidence owner: %w", err)
	}

	var current *domain.Application
	created := false
	if prior, ok := state.byID[owner]; ok {
		current = prior
	} else if match, ok := r.resolver.Resolve(ev, state.apps); ok {
		current = state.byID[match.ApplicationID]
		if match.Ambiguous() {
			summary.AmbiguousMatches++
		}
	} else {
		id := r.normalizer.ApplicationID(ev.Company, ev.RoleTitle, ev.JobURL, ev.ReferenceDate())
		if existing, found := state.byID[id]; found {
			current = existing
		} else {
			current = r.engine.NewApplication(id, ev)
			created = true
		}
	}

	updated, event := r.engine.Merge(current, ev)
	event.EvidenceKey = evidenceKey
	key := identity.EventKey(event)

	inserted := false
	err = r.repo.WithinTransaction(ctx, func(tx repository.ApplicationRepository) error {
		ok, err := tx.InsertEventIfAbsent(ctx, event, key)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		if !ok {
			return nil
		}
		inserted = true
		if err := tx.UpsertApplication(ctx, updated); err != nil {
			return fmt.Errorf("upsert application: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !inserted {
		summary.Duplicates++
		r.logger.Debug("event already recorded",
			zap.String("run_id", summary.RunID),
			zap.String("application_id", updated.ID),
			zap.String("ref", it.ref),
		)
		return nil
	}

	summary.EventsAdded++
	if created {
		summary.Created++
		state.created[updated.ID] = true
	} else if !state.created[updated.ID] {
		state.updated[updated.ID] = true
	}
	if !created && current.Status != updated.Status {
		summary.Transitions = append(summary.Transitions, domain.StatusTransition{
			ApplicationID: updated.ID,
			Company:       updated.Company,
			RoleTitle:     updated.RoleTitle,
			From:          current.Status,
			To:            updated.Status,
		})
	}
	state.put(updated)
	return nil
}

func (r *Reconciler) skip(summary *domain.Summary, index int, ref string, err error) {
	summary.Skipped++
	summary.Errors = append(summary.Errors, domain.ItemError{Index: index, Ref: ref, Reason: err.Error()})
	r.logger.Warn("skipping evidence item",
		zap.String("run_id", summary.RunID),
		zap.Int("index", index),
		zap.String("ref", ref),
		zap.Error(err),
	)
}

func (r *Reconciler) finish(ctx context.Context, summary *domain.Summary) {
	r.logger.Info("reconciliation finished",
		zap.String("run_id", summary.RunID),
		zap.Int("received", summary.Received),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("events_added", summary.EventsAdded),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("ignored", summary.Ignored),
		zap.Int("skipped", summary.Skipped),
		zap.Int("ambiguous_matches", summary.AmbiguousMatches),
	)
	if r.onTransition != nil && len(summary.Transitions) > 0 {
		r.onTransition(ctx, summary.Transitions)
	}
}

// runState is the in-memory view of the application set during one run
type runState struct {
	apps    []*domain.Application
	byID    map[string]*domain.Application
	created map[string]bool
	updated map[string]bool
}

func newRunState(apps []*domain.Application) *runState {
	s := &runState{
		apps:    apps,
		byID:    make(map[string]*domain.Application, len(apps)),
		created: make(map[string]bool),
		updated: make(map[string]bool),
	}
	for _, app := range apps {
		s.byID[app.ID] = app
	}
	return s
}

func (s *runState) put(app *domain.Application) {
	if _, ok := s.byID[app.ID]; ok {
		for i, existing := range s.apps {
			if existing.ID == app.ID {
				s.apps[i] = app
				break
			}
		}
	} else {
		s.apps = append(s.apps, app)
	}
	s.byID[app.ID] = app
}
