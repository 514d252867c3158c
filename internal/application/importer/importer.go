// Package importer reads manual captures from CSV or JSON files.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"jobtrack-backend/internal/application/domain"
)

// Format of an import file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported import format")

// ParseFormat maps a file extension or format name to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Importer turns import files into captures, dropping template rows
type Importer struct {
	skip   map[string]struct{}
	logger *zap.Logger
}

// New creates an importer that drops rows whose company is one of
// skipCompanies (case-insensitive).
func New(skipCompanies []string, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(skipCompanies))
	for _, c := range skipCompanies {
		skip[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return &Importer{skip: skip, logger: logger.Named("importer")}
}

// ReadFile reads a .csv or .json file
func (i *Importer) ReadFile(path string) ([]domain.Capture, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	return i.Read(f, format)
}

// Read parses captures from r
func (i *Importer) Read(r io.Reader, format Format) ([]domain.Capture, error) {
	var (
		rows []domain.Capture
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatJSON:
		rows, err = readJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	captures := make([]domain.Capture, 0, len(rows))
	skipped := 0
	for _, c := range rows {
		c = trimCapture(c)
		if c == (domain.Capture{}) {
			continue
		}
		if _, ok := i.skip[strings.ToLower(c.Company)]; ok {
			skipped++
			continue
		}
		captures = append(captures, c)
	}

	i.logger.Info("import file read",
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("template_rows", skipped))
	return captures, nil
}

func readJSON(r io.Reader) ([]domain.Capture, error) {
	var rows []domain.Capture
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return rows, nil
}

// columns maps accepted header names to capture fields
var columns = map[string]func(c *domain.Capture, v string){
	"company":      func(c *domain.Capture, v string) { c.Company = v },
	"role_title":   func(c *domain.Capture, v string) { c.RoleTitle = v },
	"role":         func(c *domain.Capture, v string) { c.RoleTitle = v },
	"location":     func(c *domain.Capture, v string) { c.Location = v },
	"source":       func(c *domain.Capture, v string) { c.Source = v },
	"job_url":      func(c *domain.Capture, v string) { c.JobURL = v },
	"url":          func(c *domain.Capture, v string) { c.JobURL = v },
	"notes":        func(c *domain.Capture, v string) { c.Notes = v },
	"applied_date": func(c *domain.Capture, v string) { c.AppliedDate = v },
	"captured_at":  func(c *domain.Capture, v string) { c.CapturedAt = v },
	"status":       func(c *domain.Capture, v string) { c.Status = v },
}

func readCSV(r io.Reader) ([]domain.Capture, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	setters := make([]func(*domain.Capture, string), len(header))
	known := 0
	for idx, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if set, ok := columns[name]; ok {
			setters[idx] = set
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("read csv header: no known columns in %v", header)
	}

	var rows []domain.Capture
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		var c domain.Capture
		for idx, value := range record {
			if idx < len(setters) && setters[idx] != nil {
				setters[idx](&c, value)
			}
		}
		rows = append(rows, c)
	}
	return rows, nil
}

func trimCapture(c domain.Capture) domain.Capture {
	c.Company = strings.TrimSpace(c.Company)
	c.RoleTitle = strings.TrimSpace(c.RoleTitle)
	c.Location = strings.TrimSpace(c.Location)
	c.Source = strings.TrimSpace(c.Source)
	c.JobURL = strings.TrimSpace(c.JobURL)
	c.Notes = strings.TrimSpace(c.Notes)
	c.AppliedDate = strings.TrimSpace(c.AppliedDate)
	c.CapturedAt = strings.TrimSpace(c.CapturedAt)
	c.Status = strings.TrimSpace(c.Status)
	return c
}
