package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"streeteasy-monitor/apperrors"
	"streeteasy-monitor/config"
	"streeteasy-monitor/models"
	"streeteasy-monitor/scraper/streeteasy"
	"streeteasy-monitor/storage"
	"streeteasy-monitor/utils"
)

const page = `<html><body><ul>
<li class="ListingCardsList_listCardWrapper__q">
  <a href="/building/the-ludlow-123/4a">123 Ludlow Street #4A</a>
  <span>$3,500</span><p>Rental unit in Lower East Side</p>
</li>
<li class="ListingCardsList_listCardWrapper__q">
  <a href="/building/1550-herkimer-brooklyn/2r">1550 Herkimer Street #2R</a>
  <span>$2,900</span><p>Rental unit in Ocean Hill</p>
</li>
<li class="ListingCardsList_listCardWrapper__q">
  <a href="/building/ridge-towers/12b">40 Ridge Road #12B</a>
  <span>$4,100</span><p>Rental unit in Bay Ridge</p>
</li>
</ul></body></html>`

type fakeNotifier struct {
	ok      bool
	batches [][]*models.Listing
}

func (f *fakeNotifier) Notify(_ context.Context, listings []*models.Listing) bool {
	f.batches = append(f.batches, listings)
	return f.ok
}

type fakeSearcher struct {
	listings []*models.Listing
	err      error
}

func (f *fakeSearcher) Run(context.Context, models.FilterSpec, models.ExclusionRules) ([]*models.Listing, error) {
	return f.listings, f.err
}

func searchSpec() models.FilterSpec {
	return models.FilterSpec{MinPrice: 2000, MaxPrice: 4500, MinBeds: 1, MaxBeds: 2, Baths: 1}
}

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newMonitor(srv *httptest.Server, store *storage.MemoryStore, n *fakeNotifier, rules models.ExclusionRules) *Monitor {
	cfg := &config.Config{SearchBaseURL: srv.URL, UserAgent: "test-agent", HTTPTimeout: 5 * time.Second}
	logger := utils.NewNopLogger()
	s := streeteasy.New(cfg, logger, store)
	return New(s, store, n, logger, searchSpec(), rules)
}

func TestRunNotifiesThenPersists(t *testing.T) {
	srv := newServer(t, http.StatusOK, page)
	store := storage.NewMemoryStore()
	_, _ = store.InsertIfAbsent(context.Background(), &models.Listing{ID: "ridge-towers_12b"})
	n := &fakeNotifier{ok: true}

	m := newMonitor(srv, store, n, models.ExclusionRules{"address": {"Herkimer"}})
	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(n.batches) != 1 || len(n.batches[0]) != 1 || n.batches[0][0].ID != "the-ludlow-123_4a" {
		t.Fatalf("expected one batch with the-ludlow-123_4a, got %+v", n.batches)
	}
	if report.Found != 1 || !report.Notified || report.Persisted != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.RunID == "" {
		t.Error("report should carry a run id")
	}
	if _, err := store.Get(context.Background(), "the-ludlow-123_4a"); err != nil {
		t.Errorf("listing should be stored: %v", err)
	}
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	srv := newServer(t, http.StatusOK, page)
	store := storage.NewMemoryStore()
	n := &fakeNotifier{ok: true}
	m := newMonitor(srv, store, n, nil)

	first, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Persisted != 3 {
		t.Errorf("first run persisted %d, want 3", first.Persisted)
	}
	if second.Found != 0 || len(n.batches) != 1 {
		t.Errorf("second run should find nothing new: %+v, %d batches", second, len(n.batches))
	}
}

func TestRunSkipsPersistWhenNotificationFails(t *testing.T) {
	srv := newServer(t, http.StatusOK, page)
	store := storage.NewMemoryStore()
	n := &fakeNotifier{ok: false}

	report, err := newMonitor(srv, store, n, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Notified || report.Persisted != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
	if store.Len() != 0 {
		t.Errorf("nothing should be stored, got %d", store.Len())
	}
}

func TestRunTransportFailure(t *testing.T) {
	srv := newServer(t, http.StatusServiceUnavailable, "try later")
	store := storage.NewMemoryStore()
	n := &fakeNotifier{ok: true}

	report, err := newMonitor(srv, store, n, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("transport failures are not run errors: %v", err)
	}
	if report.Found != 0 || len(n.batches) != 0 || store.Len() != 0 {
		t.Errorf("expected no side effects, got report %+v, %d batches", report, len(n.batches))
	}
}

func TestRunContinuesPastPersistenceFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	store.FailInserts(errors.New("disk full"))
	n := &fakeNotifier{ok: true}
	s := &fakeSearcher{listings: []*models.Listing{{ID: "a_1"}, {ID: "b_2"}}}

	report, err := New(s, store, n, utils.NewNopLogger(), searchSpec(), nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 2 || report.Persisted != 0 {
		t.Errorf("both inserts should be attempted and fail: %+v", report)
	}
}

func TestRunCountsDuplicates(t *testing.T) {
	store := storage.NewMemoryStore()
	_, _ = store.InsertIfAbsent(context.Background(), &models.Listing{ID: "a_1"})
	n := &fakeNotifier{ok: true}
	s := &fakeSearcher{listings: []*models.Listing{{ID: "a_1"}, {ID: "b_2"}}}

	report, err := New(s, store, n, utils.NewNopLogger(), searchSpec(), nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Persisted != 1 || report.Duplicates != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestRunPropagatesSearchErrors(t *testing.T) {
	n := &fakeNotifier{ok: true}
	s := &fakeSearcher{err: apperrors.Config("build query", errors.New("unknown area"))}

	_, err := New(s, storage.NewMemoryStore(), n, utils.NewNopLogger(), searchSpec(), nil).Run(context.Background())
	if !apperrors.IsType(err, apperrors.ErrTypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
	if len(n.batches) != 0 {
		t.Error("nothing should be sent after a search error")
	}
}
