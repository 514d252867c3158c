package usecase

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var applicationColumns = []string{
	"application_id", "company", "role_title", "location", "job_url", "status",
	"status_confidence", "applied_date", "source", "notes", "next_follow_up_date",
	"last_event_at",
}

var eventColumns = []string{
	"application_id", "event_id", "event_type", "event_date", "evidence_source",
	"evidence_text", "confidence",
}

// ExportApplicationsCSV writes every application as CSV
func (u *ApplicationUsecase) ExportApplicationsCSV(ctx context.Context, w io.Writer) error {
	apps, err := u.repo.ListApplications(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(applicationColumns); err != nil {
		return err
	}
	for _, app := range apps {
		record := []string{
			app.ID,
			app.Company,
			app.RoleTitle,
			app.Location,
			app.JobURL,
			string(app.Status),
			string(app.StatusConfidence),
			formatDate(app.AppliedDate),
			app.Source,
			app.Notes,
			formatDate(app.NextFollowUpDate),
			formatTime(app.LastEventAt),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportEventsCSV writes every event as CSV
func (u *ApplicationUsecase) ExportEventsCSV(ctx context.Context, w io.Writer) error {
	events, err := u.repo.ListAllEvents(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(eventColumns); err != nil {
		return err
	}
	for _, ev := range events {
		record := []string{
			ev.ApplicationID,
			strconv.Itoa(ev.EventID),
			string(ev.EventType),
			formatTime(ev.EventDate),
			string(ev.EvidenceSource),
			ev.EvidenceText,
			string(ev.Confidence),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
