package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func readCSV(b []byte) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(string(b)))
	return r.ReadAll()
}

func TestEncodeResponsesCSV(t *testing.T) {
	rs := []ResponseRecord{
		{ID: 2, CreatedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), Total: 25, Profile: ProfileActive},
		{ID: 1, CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), Total: 12, Profile: ProfileOblivious},
	}
	b, err := EncodeResponsesCSV(rs)
	if err != nil {
		t.Fatalf("encode csv: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 1+len(rs) {
		t.Fatalf("want %d rows, got %d", 1+len(rs), len(recs))
	}
	if got := strings.Join(recs[0], ","); got != "id,created_at,total,profile" {
		t.Fatalf("bad header: %s", got)
	}
	if got := strings.Join(recs[1], ","); got != "2,2025-03-02T09:00:00Z,25,Atuante na Causa" {
		t.Fatalf("bad row: %s", got)
	}
}

func TestEncodeResponsesCSVEmpty(t *testing.T) {
	b, err := EncodeResponsesCSV(nil)
	if err != nil {
		t.Fatalf("encode csv: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected header only, got %d rows", len(recs))
	}
}

func TestEncodeJSONKeepsAccents(t *testing.T) {
	b, err := EncodeJSON(&ExportPayload{Responses: []ResponseRecord{{ID: 1, Total: 12, Profile: ProfileOblivious}}})
	if err != nil {
		t.Fatalf("encode json: %v", err)
	}
	if !strings.Contains(string(b), "Alheio à Problemática") {
		t.Fatalf("expected verbatim label, got %s", b)
	}
}
