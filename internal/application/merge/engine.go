// Package merge applies evidence to application records: blank fields are
// filled, notes are appended and the status only moves forward, except for
// rejections.
package merge

import (
	"strings"

	"jobtrack-backend/internal/application/domain"
)

// DefaultNoteSeparator joins appended notes
const DefaultNoteSeparator = "\n"

// Engine merges evidence into applications. It holds no state besides its
// configuration and is safe for concurrent use.
type Engine struct {
	pipeline      domain.Pipeline
	noteSeparator string
}

func NewEngine(pipeline domain.Pipeline, noteSeparator string) *Engine {
	if noteSeparator == "" {
		noteSeparator = DefaultNoteSeparator
	}
	return &Engine{pipeline: pipeline, noteSeparator: noteSeparator}
}

// NewApplication returns the skeleton of an application first seen through
// ev. Merge fills in the rest.
func (e *Engine) NewApplication(id string, ev domain.Evidence) *domain.Application {
	applied := ev.ReferenceDate()
	return &domain.Application{
		ID:               id,
		Status:           domain.StatusDraft,
		StatusConfidence: ev.Confidence,
		AppliedDate:      &applied,
	}
}

// Merge returns a copy of app updated with ev, and the event recording it.
// app is not modified.
func (e *Engine) Merge(app *domain.Application, ev domain.Evidence) (*domain.Application, *domain.Event) {
	updated := *app

	fillBlank(&updated.Company, ev.Company)
	fillBlank(&updated.RoleTitle, ev.RoleTitle)
	fillBlank(&updated.Location, ev.Location)
	fillBlank(&updated.JobURL, ev.JobURL)
	fillBlank(&updated.Source, ev.Origin)

	if updated.AppliedDate == nil {
		applied := ev.ReferenceDate()
		updated.AppliedDate = &applied
	}

	if note := strings.TrimSpace(ev.Notes); note != "" {
		if updated.Notes == "" {
			updated.Notes = note
		} else {
			updated.Notes = updated.Notes + e.noteSeparator + note
		}
	}

	eventType := ev.EventType
	if eventType == "" {
		eventType = domain.EventOther
	}
	if e.pipeline.ShouldUpdate(updated.Status, eventType) {
		updated.Status, _ = eventType.StatusFor()
		updated.StatusConfidence = ev.Confidence
	}

	if ev.Date.After(updated.LastEventAt) {
		updated.LastEventAt = ev.Date
	}

	event := &domain.Event{
		ApplicationID:  updated.ID,
		EventType:      eventType,
		EventDate:      ev.Date,
		EvidenceSource: ev.Source,
		EvidenceText:   ev.EvidenceText,
		Confidence:     ev.Confidence,
	}
	return &updated, event
}

func fillBlank(field *string, value string) {
	if strings.TrimSpace(*field) != "" {
		return
	}
	*field = strings.TrimSpace(value)
}
