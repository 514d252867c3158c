// Package identity derives the content-addressed identifiers used by the
// reconciliation engine: application ids, event dedup keys and the
// normalized forms of names and job URLs they are computed from.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/pkg/fuzzy"
)

// DefaultTrackingParams are query parameters stripped from job URLs in
// addition to every utm_* parameter.
var DefaultTrackingParams = []string{
	"gclid", "fbclid", "msclkid", "mc_cid", "mc_eid", "_hsenc", "_hsmi",
	"igshid", "ref", "refid", "trk", "trackingid", "src", "si",
}

const fieldSep = "|"

// Normalizer normalizes names and URLs. It is immutable and safe to share.
type Normalizer struct {
	tracking map[string]struct{}
}

// NewNormalizer builds a normalizer stripping the given tracking parameters.
// A nil list selects DefaultTrackingParams.
func NewNormalizer(trackingParams []string) *Normalizer {
	if trackingParams == nil {
		trackingParams = DefaultTrackingParams
	}
	tracking := make(map[string]struct{}, len(trackingParams))
	for _, p := range trackingParams {
		tracking[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return &Normalizer{tracking: tracking}
}

// Text normalizes a company or role name.
func Text(s string) string {
	return fuzzy.Normalize(s)
}

// URL lowercases raw, drops the fragment, tracking parameters and trailing
// slashes, and sorts the remaining query parameters.
func (n *Normalizer) URL(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}

	u.Fragment = ""
	u.RawFragment = ""
	query := u.Query()
	for key := range query {
		if strings.HasPrefix(key, "utm_") {
			query.Del(key)
			continue
		}
		if _, ok := n.tracking[key]; ok {
			query.Del(key)
		}
	}
	// Encode sorts by key
	u.RawQuery = query.Encode()
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return strings.TrimRight(u.String(), "/")
}

// ApplicationID derives the stable id of an application from its normalized
// company, role, URL and the UTC day of its applied date.
func (n *Normalizer) ApplicationID(company, roleTitle, jobURL string, applied time.Time) string {
	parts := []string{Text(company), Text(roleTitle), n.URL(jobURL), DayBucket(applied)}
	sum := sha256.Sum256([]byte(strings.Join(parts, fieldSep)))
	return "app_" + hex.EncodeToString(sum[:])[:16]
}

// DayBucket formats t as its UTC calendar day, or "" for the zero time.
func DayBucket(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// EventKey is the content-derived dedup key of an event. Re-processing the
// same evidence for the same application always yields the same key.
func EventKey(ev *domain.Event) string {
	parts := []string{
		ev.ApplicationID,
		string(ev.EventType),
		ev.EventDate.UTC().Format(time.RFC3339Nano),
		ev.EvidenceText,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, fieldSep)))
	return hex.EncodeToString(sum[:])
}

// EvidenceKey identifies one piece of evidence independently of the
// application it was attached to. ref is the message id for emails.
func EvidenceKey(source domain.EvidenceSource, ref string, eventType domain.EventType, date time.Time, text string) string {
	parts := []string{
		string(source),
		ref,
		string(eventType),
		date.UTC().Format(time.RFC3339Nano),
		text,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, fieldSep)))
	return hex.EncodeToString(sum[:])
}

// SortedParams lists the configured tracking parameters, mainly for display.
func (n *Normalizer) SortedParams() []string {
	out := make([]string, 0, len(n.tracking))
	for p := range n.tracking {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
