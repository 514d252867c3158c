package classifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/pkg/config"
)

func newTestClassifier(t *testing.T) (*Classifier, *observer.ObservedLogs) {
	t.Helper()
	rules, err := config.DefaultRules()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	c, err := New(rules, zap.New(core))
	require.NoError(t, err)
	return c, logs
}

func TestClassify(t *testing.T) {
	c, _ := newTestClassifier(t)
	received := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		subject  string
		body     string
		wantType domain.EventType
		wantConf domain.Confidence
	}{
		{
			name:     "confirmation",
			subject:  "Thank you for applying to Acme for Backend Engineer",
			wantType: domain.EventApplied,
			wantConf: domain.ConfidenceMedium,
		},
		{
			name:     "rejection",
			subject:  "Unfortunately we will not be moving forward with your Backend Engineer application at Acme",
			wantType: domain.EventRejected,
			wantConf: domain.ConfidenceHigh,
		},
		{
			name:     "interview invitation",
			subject:  "Next steps",
			body:     "We would like to invite you to an interview next week.",
			wantType: domain.EventInterview,
			wantConf: domain.ConfidenceHigh,
		},
		{
			name:     "interview in subject",
			subject:  "Interview with Acme",
			body:     "Please pick a slot that works for you.",
			wantType: domain.EventInterview,
			wantConf: domain.ConfidenceMedium,
		},
		{
			name:     "offer",
			subject:  "Your offer letter from Initech",
			wantType: domain.EventOffer,
			wantConf: domain.ConfidenceHigh,
		},
		{
			name:     "german confirmation",
			subject:  "Eingang Ihrer Bewerbung als Softwareentwickler bei Müller GmbH",
			wantType: domain.EventApplied,
			wantConf: domain.ConfidenceHigh,
		},
		{
			name:     "german rejection",
			subject:  "Absage: Ihre Bewerbung als Data Analyst bei Beispiel AG",
			wantType: domain.EventRejected,
			wantConf: domain.ConfidenceHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Classify(tt.subject, tt.body, received)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, got.EventType)
			assert.Equal(t, tt.wantConf, got.Confidence)
			assert.Equal(t, received, got.Date)
		})
	}
}

func TestClassify_Unrelated(t *testing.T) {
	c, _ := newTestClassifier(t)

	got, ok := c.Classify("Your weekly newsletter", "Top stories this week", time.Now())
	assert.False(t, ok)
	assert.Nil(t, got)

	_, ok = c.Classify("", "", time.Now())
	assert.False(t, ok)
}

func TestClassify_RejectionWinsRegardlessOfOrder(t *testing.T) {
	c, _ := newTestClassifier(t)

	first, ok := c.Classify("Update on your application",
		"We enjoyed the interview. Unfortunately we will not be moving forward.", time.Now())
	require.True(t, ok)

	second, ok := c.Classify("Update on your application",
		"Unfortunately we will not be moving forward. We enjoyed the interview.", time.Now())
	require.True(t, ok)

	assert.Equal(t, domain.EventRejected, first.EventType)
	assert.Equal(t, domain.EventRejected, second.EventType)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestClassify_ConfirmationMentioningInterviewStaysApplied(t *testing.T) {
	c, _ := newTestClassifier(t)

	got, ok := c.Classify("Your application at Acme",
		"We have received your application. Next steps: if your profile matches, we will invite you to an interview.",
		time.Now())
	require.True(t, ok)
	assert.Equal(t, domain.EventApplied, got.EventType)
	assert.Equal(t, domain.ConfidenceHigh, got.Confidence)
	assert.False(t, got.Ambiguous)
}

func TestClassify_TiedGroupsLowerConfidence(t *testing.T) {
	c, logs := newTestClassifier(t)

	got, ok := c.Classify("Thank you for applying", "Unfortunately, the role has been closed.", time.Now())
	require.True(t, ok)

	assert.Equal(t, domain.EventRejected, got.EventType)
	assert.Equal(t, domain.ConfidenceLow, got.Confidence)
	assert.True(t, got.Ambiguous)

	entries := logs.FilterMessage("competing rule groups matched").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
}

func TestClassify_CustomRulesSideBySide(t *testing.T) {
	defaults, _ := newTestClassifier(t)

	custom, err := New(&config.Rules{EventGroups: []config.EventGroup{
		{EventType: "Interview", Weak: []string{`\bcoffee chat\b`}},
	}}, nil)
	require.NoError(t, err)

	_, ok := defaults.Classify("Coffee chat?", "", time.Now())
	assert.False(t, ok)

	got, ok := custom.Classify("Coffee chat?", "", time.Now())
	require.True(t, ok)
	assert.Equal(t, domain.EventInterview, got.EventType)
	assert.Equal(t, domain.ConfidenceMedium, got.Confidence)
}

func TestNew_RejectsUnknownEventType(t *testing.T) {
	_, err := New(&config.Rules{EventGroups: []config.EventGroup{{EventType: "Ghosted"}}}, nil)
	assert.Error(t, err)

	_, err = New(&config.Rules{EventGroups: []config.EventGroup{{EventType: "Other"}}}, nil)
	assert.Error(t, err)
}

func TestEvidenceText(t *testing.T) {
	assert.Equal(t, "Interview", EvidenceText("  Interview ", "body"))
	assert.Equal(t, "We regret to inform you", EvidenceText("", "  We \n regret to\tinform you "))

	long := strings.Repeat("a", 200)
	assert.Len(t, EvidenceText("", long), evidenceTextLimit)
}
