package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"streeteasy-monitor/models"
)

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "raw.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	err = w.WriteRaw([]*models.Listing{
		{ID: "a_1", URL: "https://streeteasy.com/building/a/1", Price: 3100, Address: "1 Main Street #1", Neighborhood: "DUMBO", ListedBy: models.NotAvailable, IsFeatured: true},
		{ID: "b_2", Price: 2400},
	})
	if err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: got %d, want 3 (header + 2)", len(rows))
	}
	if rows[0][0] != "listing_id" {
		t.Errorf("header: got %v", rows[0])
	}
	if rows[1][2] != "3100" || rows[1][6] != "true" {
		t.Errorf("row 1: got %v", rows[1])
	}
}
