package storage

import (
	"testing"

	"streeteasy-monitor/models"
)

func TestInsertColumnsWhitelist(t *testing.T) {
	cols := insertColumns(&models.Listing{
		ID:           "the-ludlow_4a",
		URL:          "https://streeteasy.com/building/the-ludlow/4a",
		Price:        3500,
		Address:      "123 Ludlow Street #4A",
		Neighborhood: "Lower East Side",
		ListedBy:     "Acme Realty",
		IsFeatured:   true,
	})

	want := []string{"listing_id", "url", "price", "address", "neighborhood", "listed_by"}
	if len(cols) != len(want) {
		t.Fatalf("columns: got %d, want %d", len(cols), len(want))
	}
	for i, c := range cols {
		if c.name != want[i] {
			t.Errorf("column %d: got %q, want %q", i, c.name, want[i])
		}
	}
}

func TestInsertColumnsRequiresID(t *testing.T) {
	if cols := insertColumns(&models.Listing{URL: "x"}); cols != nil {
		t.Errorf("expected no columns without an identifier, got %v", cols)
	}
	if cols := insertColumns(nil); cols != nil {
		t.Errorf("expected no columns for nil listing, got %v", cols)
	}
}
