package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CatalogStore interface {
	ListQuestions(ctx context.Context) ([]Question, error)
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	catalog   CatalogStore
	analytics *AnalyticsService
	now       func() time.Time
	newID     func() string
}

func NewExportService(catalog CatalogStore, analytics *AnalyticsService) *ExportService {
	return &ExportService{
		catalog:   catalog,
		analytics: analytics,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Export serializes the catalog, all records and the statistics bundle.
// format is one of json, yaml or csv (records only); an empty format means json.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}
	switch format {
	case FormatJSON, FormatYAML, FormatCSV:
	case "yml":
		format = FormatYAML
	default:
		return nil, NewUnsupportedFormatError(format)
	}

	// statistics and records come from the same snapshot
	rs, err := s.analytics.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if format == FormatCSV {
		b, err := EncodeResponsesCSV(rs)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "respostas.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	}

	qs, err := s.catalog.ListQuestions(ctx)
	if err != nil {
		return nil, NewPersistenceError(err)
	}
	payload := &ExportPayload{
		ExportID:   s.newID(),
		ExportedAt: s.now(),
		Questions:  qs,
		Responses:  rs,
		Statistics: s.analytics.buildBundle(rs),
	}
	if format == FormatYAML {
		b, err := EncodeYAML(payload)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "empatia.yaml", ContentType: "application/yaml; charset=utf-8", Data: b}, nil
	}
	b, err := EncodeJSON(payload)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Filename: "empatia.json", ContentType: "application/json; charset=utf-8", Data: b}, nil
}
