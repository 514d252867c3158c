package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack-backend/internal/application/domain"
)

func TestParseCaptureDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	for _, s := range []string{"2024-01-15", "15.01.2024", "2024/01/15", "01/15/2024", "2024-01-15T00:00:00Z", " 2024-01-15 00:00:00 "} {
		got, err := ParseCaptureDate(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}

	got, err := ParseCaptureDate("2024-01-15T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 8, got.Hour())

	got, err = ParseCaptureDate("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseCaptureDate("last tuesday")
	assert.ErrorIs(t, err, domain.ErrMalformedEvidence)
}

func TestCaptureEvidence(t *testing.T) {
	ev, err := captureEvidence(domain.Capture{
		Company:     " Acme ",
		RoleTitle:   "Backend Engineer",
		JobURL:      "https://jobs.acme.io/42",
		AppliedDate: "2024-01-01",
		CapturedAt:  "2024-01-03T12:00:00Z",
		Status:      "Applied",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SourceManualImport, ev.Source)
	assert.Equal(t, "manual", ev.Origin)
	assert.Equal(t, "Acme", ev.Company)
	assert.Equal(t, domain.EventApplied, ev.EventType)
	assert.Equal(t, domain.ConfidenceHigh, ev.Confidence)
	assert.Equal(t, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), ev.Date)
	require.NotNil(t, ev.AppliedDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ev.ReferenceDate())
	assert.Equal(t, "Captured from manual: Backend Engineer at Acme (https://jobs.acme.io/42)", ev.EvidenceText)
}

func TestCaptureEvidence_UnknownStatusIsOther(t *testing.T) {
	for _, status := range []string{"", "Draft", "saved"} {
		ev, err := captureEvidence(domain.Capture{Company: "Acme", CapturedAt: "2024-01-03", Status: status})
		require.NoError(t, err)
		assert.Equal(t, domain.EventOther, ev.EventType, status)
	}
}

func TestCaptureEvidence_Malformed(t *testing.T) {
	_, err := captureEvidence(domain.Capture{Company: "Acme"})
	assert.ErrorIs(t, err, domain.ErrMalformedEvidence)

	_, err = captureEvidence(domain.Capture{CapturedAt: "2024-01-03"})
	assert.ErrorIs(t, err, domain.ErrMalformedEvidence)

	_, err = captureEvidence(domain.Capture{Company: "Acme", CapturedAt: "2024-01-03", AppliedDate: "soon"})
	assert.ErrorIs(t, err, domain.ErrMalformedEvidence)
}
