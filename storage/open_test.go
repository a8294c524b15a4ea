package storage

import (
	"testing"

	"streeteasy-monitor/apperrors"
	"streeteasy-monitor/utils"
)

func TestOpen(t *testing.T) {
	store, err := Open(BackendMemory, "", utils.NewNopLogger())
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", store)
	}

	if _, err := Open("sqlite", "", utils.NewNopLogger()); !apperrors.IsType(err, apperrors.ErrTypeConfig) {
		t.Errorf("unknown backend: expected config error, got %v", err)
	}
}
