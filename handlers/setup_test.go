package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/dealdeck/recordstore"
	"github.com/harperreed/dealdeck/services"
)

var testNow = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func setupTestServices(t *testing.T) (*services.Services, *recordstore.MemoryStore) {
	t.Helper()
	store := recordstore.NewMemoryStore()
	if _, err := recordstore.Seed(context.Background(), store); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	svc := services.New(store, services.Options{Now: func() time.Time { return testNow }})
	return svc, store
}
