package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"streeteasy-monitor/models"
	"streeteasy-monitor/utils"
)

// testListingStore checks the behavior every ListingStore shares. IDs are
// suffixed so the test can run against a database that is not empty.
func testListingStore(t *testing.T, store ListingStore) {
	t.Helper()
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	l := &models.Listing{
		ID:           "contract-" + suffix + "_4a",
		URL:          "https://streeteasy.com/building/contract-" + suffix + "/4a",
		Price:        3500,
		Address:      "123 Ludlow Street #4A",
		Neighborhood: "Lower East Side",
		ListedBy:     "Acme Realty",
		IsFeatured:   true,
	}

	steps := []struct {
		name    string
		listing *models.Listing
		want    bool
	}{
		{"first insert", l, true},
		{"repeat insert", l, false},
		{"empty identifier", &models.Listing{URL: "x"}, false},
		{"nil listing", nil, false},
	}
	for _, st := range steps {
		got, err := store.InsertIfAbsent(ctx, st.listing)
		if err != nil || got != st.want {
			t.Errorf("%s: got (%v, %v), want (%v, nil)", st.name, got, err, st.want)
		}
	}

	ids, err := store.ExistingIDs(ctx)
	if err != nil {
		t.Fatalf("ExistingIDs: %v", err)
	}
	if !ids.Contains(l.ID) {
		t.Errorf("ExistingIDs should contain %s", l.ID)
	}

	got, err := store.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Price != 3500 || got.Address != l.Address || got.ListedBy != l.ListedBy {
		t.Errorf("Get: unexpected listing %+v", got)
	}
	if got.IsFeatured {
		t.Error("IsFeatured must not be persisted")
	}

	if _, err := store.Get(ctx, "missing-"+suffix+"_9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	testListingStore(t, NewMemoryStore())
}

func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	store, err := NewPostgresStore(dsn, utils.NewNopLogger())
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer store.Close()

	testListingStore(t, store)
}

func TestPostgresStoreIgnoresEmptyIdentifier(t *testing.T) {
	ps := &PostgresStore{logger: utils.NewNopLogger()}

	for _, l := range []*models.Listing{nil, {URL: "https://streeteasy.com/building/x/1"}} {
		inserted, err := ps.InsertIfAbsent(context.Background(), l)
		if err != nil || inserted {
			t.Errorf("got (%v, %v), want (false, nil)", inserted, err)
		}
	}
}
