package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"streeteasy-monitor/models"
)

func TestMemoryStoreInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	l := &models.Listing{ID: "the-ludlow_4a", URL: "https://streeteasy.com/building/the-ludlow/4a", Price: 3500}

	inserted, err := s.InsertIfAbsent(ctx, l)
	if err != nil || !inserted {
		t.Fatalf("first insert: got (%v, %v), want (true, nil)", inserted, err)
	}

	inserted, err = s.InsertIfAbsent(ctx, l)
	if err != nil || inserted {
		t.Fatalf("second insert: got (%v, %v), want (false, nil)", inserted, err)
	}

	if s.Len() != 1 {
		t.Errorf("Len: got %d, want 1", s.Len())
	}

	ids, _ := s.ExistingIDs(ctx)
	if !ids.Contains("the-ludlow_4a") || len(ids) != 1 {
		t.Errorf("ExistingIDs: got %v", ids)
	}
}

func TestMemoryStoreDropsNonWhitelistedFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, _ = s.InsertIfAbsent(ctx, &models.Listing{ID: "a_1", Price: 2000, IsFeatured: true})

	got, err := s.Get(ctx, "a_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.IsFeatured {
		t.Error("IsFeatured must not be persisted")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set at insert time")
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"a_1", "b_2", "c_3"} {
		_, _ = s.InsertIfAbsent(ctx, &models.Listing{ID: id})
	}

	all, _ := s.List(ctx, 0)
	if len(all) != 3 || all[0].ID != "c_3" || all[2].ID != "a_1" {
		t.Errorf("List(0): unexpected order %v", all)
	}

	limited, _ := s.List(ctx, 2)
	if len(limited) != 2 || limited[0].ID != "c_3" {
		t.Errorf("List(2): unexpected result %v", limited)
	}

	if _, err := s.Get(ctx, "zzz_9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var inserted int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.InsertIfAbsent(ctx, &models.Listing{ID: "same_1"}); ok {
				atomic.AddInt64(&inserted, 1)
			}
		}()
	}
	wg.Wait()

	if inserted != 1 {
		t.Errorf("expected exactly 1 successful insert, got %d", inserted)
	}
}

func TestMemoryStoreFailInserts(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("disk full")
	s.FailInserts(boom)

	if _, err := s.InsertIfAbsent(context.Background(), &models.Listing{ID: "a_1"}); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
}
