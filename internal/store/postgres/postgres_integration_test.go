package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/store"
)

func TestSnapshotUpsertBumpsVersion(t *testing.T) {
	databaseURL := os.Getenv("PDV_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set PDV_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	key := fmt.Sprintf("pos-storage-it-%d", time.Now().UnixNano())
	s, err := New(ctx, databaseURL, key)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, `DELETE FROM pos_snapshots WHERE key = $1`, key)
		_ = s.Close()
	})

	if _, err := s.Load(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	snap := domain.Snapshot{
		Products: []domain.Product{{ID: "p1", Cod: "PROD-0001", Name: "Pão de Queijo", Price: decimal.RequireFromString("3.5"), Stock: decimal.NewFromInt(50), Unit: domain.UnitPiece}},
		Theme:    domain.DefaultTheme(),
	}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("first save: %v", err)
	}
	snap.Products[0].Stock = decimal.NewFromInt(49)
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("second save: %v", err)
	}

	version, err := s.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 2 {
		t.Fatalf("expected version 2, got %d", version)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Products[0].Stock.Equal(decimal.NewFromInt(49)) {
		t.Fatalf("expected stock 49, got %s", loaded.Products[0].Stock)
	}
}
