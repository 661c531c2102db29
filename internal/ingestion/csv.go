// Package ingestion loads drop lists from CSV exports into the seen ledger.
package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LuckyB33f/domainAgent/internal/domain"
	"github.com/LuckyB33f/domainAgent/internal/observability"
)

// ErrNoDomainColumn is returned when the header has no recognizable domain column.
var ErrNoDomainColumn = errors.New("csv header has no domain name column")

// Header aliases, matched case-insensitively after trimming.
var (
	domainHeaders = []string{"domainname", "domain name", "domain_name", "domain", "name"}
	dateHeaders   = []string{"dropdate", "drop date", "drop_date", "date", "expiry", "expiry_date", "expirydate"}
)

// dateLayouts are tried in order. Day-first wins for ambiguous dates like 03/04/2026.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2/1/2006",
	"2006/01/02",
	"02-01-2006",
	time.RFC3339,
}

// Admitter admits candidates into the seen ledger and returns the new ones.
type Admitter interface {
	Admit(ctx context.Context, candidates []domain.CandidateRecord, source domain.Source) ([]domain.CandidateRecord, error)
}

// Result summarizes one import.
type Result struct {
	Rows     int                      // data rows read, header excluded
	Skipped  int                      // rows with a blank domain name
	Admitted []domain.CandidateRecord // names not seen before
}

// CSVImporter parses drop-list CSV files and admits them with source "file".
type CSVImporter struct {
	cache Admitter
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewCSVImporter creates an importer.
func NewCSVImporter(cache Admitter, logger logrus.FieldLogger) *CSVImporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CSVImporter{
		cache: cache,
		log:   logger.WithField("component", "csv_ingestion"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets the clock used for the missing-date fallback.
func (i *CSVImporter) WithClock(now func() time.Time) *CSVImporter {
	i.now = now
	return i
}

// ImportFile imports the CSV file at path.
func (i *CSVImporter) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	i.log.WithField("path", path).Info("ingesting csv file")
	return i.Import(ctx, f)
}

// Import reads CSV from r and admits every row with a non-blank domain name.
func (i *CSVImporter) Import(ctx context.Context, r io.Reader) (*Result, error) {
	candidates, skipped, err := parse(ctx, r, today(i.now()))
	if err != nil {
		return nil, err
	}

	result := &Result{Rows: len(candidates) + skipped, Skipped: skipped}
	if len(candidates) == 0 {
		i.log.Info("csv contained no domain rows")
		return result, nil
	}

	admitted, err := i.cache.Admit(ctx, candidates, domain.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("admit csv rows: %w", err)
	}
	result.Admitted = admitted
	observability.RecordFileAdmitted(len(admitted))

	i.log.WithFields(logrus.Fields{
		"rows":     result.Rows,
		"skipped":  result.Skipped,
		"admitted": len(admitted),
	}).Info("csv ingestion finished")
	return result, nil
}

func parse(ctx context.Context, r io.Reader, fallback time.Time) ([]domain.CandidateRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}

	nameCol, dateCol := columnIndex(header, domainHeaders), columnIndex(header, dateHeaders)
	if nameCol < 0 {
		return nil, 0, ErrNoDomainColumn
	}

	var (
		candidates []domain.CandidateRecord
		skipped    int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}

		name := field(record, nameCol)
		if name == "" {
			skipped++
			continue
		}
		candidates = append(candidates, domain.NewCandidate(name, parseDropDate(field(record, dateCol), fallback)))
	}
	return candidates, skipped, nil
}

func columnIndex(header, aliases []string) int {
	for idx, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, alias := range aliases {
			if h == alias {
				return idx
			}
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseDropDate returns the UTC date of v, or fallback if v is blank or unparseable.
func parseDropDate(v string, fallback time.Time) time.Time {
	if v == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return today(t)
		}
	}
	return fallback
}

func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
