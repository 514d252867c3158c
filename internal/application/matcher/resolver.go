// Package matcher decides which existing application a piece of evidence
// belongs to.
package matcher

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/identity"
)

// DefaultWindow is the default merge window for fuzzy matches
const DefaultWindow = 14 * 24 * time.Hour

// Rule names the rule that produced a match
type Rule string

const (
	RuleURL   Rule = "url"
	RuleFuzzy Rule = "fuzzy"
)

// Match is the outcome of a successful resolution
type Match struct {
	ApplicationID string
	Rule          Rule
	// Candidates is the number of applications that qualified. More than one
	// means the match was resolved by recency.
	Candidates int
}

// Ambiguous reports whether several applications qualified
func (m Match) Ambiguous() bool {
	return m.Candidates > 1
}

// Resolver matches evidence against existing applications: URL identity
// first, then company and role within the merge window.
type Resolver struct {
	normalizer *identity.Normalizer
	window     time.Duration
	logger     *zap.Logger
}

func NewResolver(normalizer *identity.Normalizer, window time.Duration, logger *zap.Logger) *Resolver {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{normalizer: normalizer, window: window, logger: logger.Named("matcher")}
}

// Window returns the configured merge window
func (r *Resolver) Window() time.Duration {
	return r.window
}

// Resolve returns the application ev should attach to, or false when a new
// application must be created.
func (r *Resolver) Resolve(ev domain.Evidence, apps []*domain.Application) (Match, bool) {
	evURL := r.normalizer.URL(ev.JobURL)

	if evURL != "" {
		var byURL []*domain.Application
		for _, app := range apps {
			if r.normalizer.URL(app.JobURL) == evURL {
				byURL = append(byURL, app)
			}
		}
		if len(byURL) > 0 {
			return r.pick(RuleURL, byURL, ev), true
		}
	}

	company := identity.Text(ev.Company)
	role := identity.Text(ev.RoleTitle)
	if company == "" || role == "" {
		return Match{}, false
	}

	ref := ev.ReferenceDate()
	var candidates []*domain.Application
	for _, app := range apps {
		if identity.Text(app.Company) != company || identity.Text(app.RoleTitle) != role {
			continue
		}
		// A different posting for the same title is a different application
		if appURL := r.normalizer.URL(app.JobURL); appURL != "" && evURL != "" && appURL != evURL {
			continue
		}
		if !r.withinWindow(app, ref) {
			continue
		}
		candidates = append(candidates, app)
	}
	if len(candidates) == 0 {
		return Match{}, false
	}
	return r.pick(RuleFuzzy, candidates, ev), true
}

func (r *Resolver) withinWindow(app *domain.Application, ref time.Time) bool {
	if app.AppliedDate != nil && absDuration(ref.Sub(*app.AppliedDate)) <= r.window {
		return true
	}
	if !app.LastEventAt.IsZero() && absDuration(ref.Sub(app.LastEventAt)) <= r.window {
		return true
	}
	return false
}

// pick prefers the most recently active application, then the smallest id
func (r *Resolver) pick(rule Rule, candidates []*domain.Application, ev domain.Evidence) Match {
	if len(candidates) > 1 {
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if !a.LastEventAt.Equal(b.LastEventAt) {
				return a.LastEventAt.After(b.LastEventAt)
			}
			return a.ID < b.ID
		})

		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.ID)
		}
		r.logger.Warn("evidence matches several applications, using most recent",
			zap.Error(domain.ErrMatchAmbiguous),
			zap.String("rule", string(rule)),
			zap.String("company", ev.Company),
			zap.String("role_title", ev.RoleTitle),
			zap.Strings("candidates", ids),
			zap.String("chosen", candidates[0].ID),
		)
	}
	return Match{ApplicationID: candidates[0].ID, Rule: rule, Candidates: len(candidates)}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
