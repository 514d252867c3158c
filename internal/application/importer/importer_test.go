package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobtrack-backend/internal/application/domain"
)

var templates = []string{"Example Corp", "TechCorp GmbH"}

func TestRead_CSV(t *testing.T) {
	data := "\ufeffCompany,Role_Title,Location,URL,Applied_Date,Extra,Status\n" +
		"Acme,Backend Engineer,Berlin,https://x.io/1,2024-01-10,ignored,Interview\n" +
		"example corp,Template Role,,,,,\n" +
		",,,,,,\n" +
		"Globex,  Data Analyst ,Munich,,2024-01-12\n"

	captures, err := New(templates, nil).Read(strings.NewReader(data), FormatCSV)
	require.NoError(t, err)
	require.Len(t, captures, 2)

	assert.Equal(t, domain.Capture{
		Company:     "Acme",
		RoleTitle:   "Backend Engineer",
		Location:    "Berlin",
		JobURL:      "https://x.io/1",
		AppliedDate: "2024-01-10",
		Status:      "Interview",
	}, captures[0])
	assert.Equal(t, "Data Analyst", captures[1].RoleTitle)
	assert.Empty(t, captures[1].Status)
}

func TestRead_CSVWithoutKnownColumns(t *testing.T) {
	_, err := New(nil, nil).Read(strings.NewReader("a,b\n1,2\n"), FormatCSV)
	assert.Error(t, err)
}

func TestRead_JSON(t *testing.T) {
	data := `[
		{"company": "Acme", "role_title": "Backend Engineer", "captured_at": "2024-01-10T09:00:00Z", "source": "LinkedIn"},
		{"company": "TechCorp GmbH", "role_title": "Template"}
	]`

	captures, err := New(templates, nil).Read(strings.NewReader(data), FormatJSON)
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, "LinkedIn", captures[0].Source)
	assert.Equal(t, "2024-01-10T09:00:00Z", captures[0].CapturedAt)

	_, err = New(nil, nil).Read(strings.NewReader(`{"company": "Acme"}`), FormatJSON)
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "captures.csv")
	require.NoError(t, os.WriteFile(path, []byte("company,role_title\nAcme,Backend Engineer\n"), 0o600))

	captures, err := New(nil, nil).ReadFile(path)
	require.NoError(t, err)
	require.Len(t, captures, 1)

	_, err = New(nil, nil).ReadFile(filepath.Join(dir, "captures.xlsx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(nil, nil).ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
