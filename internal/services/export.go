package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// ExportPayload is the full dump: catalog, raw records and statistics.
type ExportPayload struct {
	ExportID   string           `json:"export_id" yaml:"export_id"`
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Questions  []Question       `json:"questions" yaml:"questions"`
	Responses  []ResponseRecord `json:"responses" yaml:"responses"`
	Statistics *StatsBundle     `json:"statistics" yaml:"statistics"`
}

// EncodeJSON renders p as indented JSON with non-ASCII text kept verbatim.
func EncodeJSON(p *ExportPayload) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodeYAML(p *ExportPayload) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeResponsesCSV renders the records table, one row per response.
func EncodeResponsesCSV(rs []ResponseRecord) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "created_at", "total", "profile"})
	for _, r := range rs {
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(r.Total),
			string(r.Profile),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
