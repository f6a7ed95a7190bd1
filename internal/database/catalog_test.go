package database

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/creditline/internal/model"
)

// setupTestCatalog creates a temporary catalog for testing.
func setupTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

// TestOpen tests catalog opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		c, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open catalog: %v", err)
		}
		defer c.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if c.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", c.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "catalog not found") {
			t.Errorf("expected informative error, got %q", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("catalog directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		c1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create catalog: %v", err)
		}
		if err := c1.UpsertRecord(context.Background(), "f22-001", model.CopyrightRecord{Year: "2023"}); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		_ = c1.Close()

		c2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing catalog: %v", err)
		}
		defer c2.Close()

		e, err := c2.GetRecord(context.Background(), "f22-001")
		if err != nil || e == nil {
			t.Fatalf("expected persisted record, got %v, %v", e, err)
		}
	})
}

// TestDefaultOptions tests the default options.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

// TestRecords tests record CRUD operations.
func TestRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setupTestCatalog(t)

	rec := model.CopyrightRecord{
		Source:    "法国国防部",
		Copyright: "Ministère des Armées",
		License:   "Official Release",
		Year:      "2023",
	}

	if err := c.UpsertRecord(ctx, "rafale-001", rec); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	got, err := c.GetRecord(ctx, "rafale-001")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got == nil || got.Record != rec {
		t.Fatalf("expected %+v, got %+v", rec, got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected update time to be parsed")
	}

	rec.Year = "2024"
	if err := c.UpsertRecord(ctx, "rafale-001", rec); err != nil {
		t.Fatalf("failed to update: %v", err)
	}
	got, _ = c.GetRecord(ctx, "rafale-001")
	if got.Record.Year != "2024" {
		t.Errorf("expected updated year, got %q", got.Record.Year)
	}

	missing, err := c.GetRecord(ctx, "missing")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing record, got %v, %v", missing, err)
	}

	deleted, err := c.DeleteRecord(ctx, "rafale-001")
	if err != nil || !deleted {
		t.Errorf("expected delete to succeed, got %v, %v", deleted, err)
	}
	deleted, err = c.DeleteRecord(ctx, "rafale-001")
	if err != nil || deleted {
		t.Errorf("expected second delete to report false, got %v, %v", deleted, err)
	}
}

// TestImportTable tests bulk import and the import log.
func TestImportTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := setupTestCatalog(t)

	seed := model.SeedTable()
	n, err := c.ImportTable(ctx, seed, "seed")
	if err != nil {
		t.Fatalf("failed to import: %v", err)
	}
	if n != len(seed) {
		t.Errorf("expected %d records, got %d", len(seed), n)
	}

	table, err := c.Table(ctx)
	if err != nil {
		t.Fatalf("failed to read table: %v", err)
	}
	if !reflect.DeepEqual(table, seed) {
		t.Errorf("expected catalog to match seed table, got %v", table)
	}

	entries, err := c.ListRecords(ctx)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(entries) != len(seed) || entries[0].ID != seed.IDs()[0] {
		t.Error("expected entries ordered by identifier")
	}

	if _, err := c.ImportTable(ctx, model.Table{"x": {Year: "1999"}}, "extra.json"); err != nil {
		t.Fatalf("failed to import: %v", err)
	}

	imports, err := c.ListImports(ctx)
	if err != nil {
		t.Fatalf("failed to list imports: %v", err)
	}
	if len(imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(imports))
	}
	if imports[0].Origin != "extra.json" || imports[0].Count != 1 {
		t.Errorf("expected newest import first, got %+v", imports[0])
	}
	if imports[1].Origin != "seed" || imports[1].Count != len(seed) {
		t.Errorf("unexpected first import %+v", imports[1])
	}
}

// TestImportTableCanceled tests that a failed import leaves no rows.
func TestImportTableCanceled(t *testing.T) {
	t.Parallel()

	c := setupTestCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.ImportTable(ctx, model.SeedTable(), "seed"); err == nil {
		t.Fatal("expected error for canceled context")
	}

	table, err := c.Table(context.Background())
	if err != nil {
		t.Fatalf("failed to read table: %v", err)
	}
	if len(table) != 0 {
		t.Errorf("expected empty catalog, got %d records", len(table))
	}
}

// TestParseTimestamp tests timestamp parsing fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2024-03-01 10:20:30", want: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{in: "2024-03-01T10:20:30Z", want: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{in: "garbage", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
