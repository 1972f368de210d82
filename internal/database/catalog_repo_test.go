package database

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kdimtricp/leafscan/internal/catalog"
)

func TestCatalogRepository_SeedAndSignatures(t *testing.T) {
	forEachDB(t, func(t *testing.T, db *DB) {
		repo := NewCatalogRepository(db)
		ctx := context.Background()

		seeded, err := repo.Seed(ctx, catalog.SeedDatasets(), catalog.SeedSignatures())
		if err != nil {
			t.Fatalf("Failed to seed catalog: %v", err)
		}
		if !seeded {
			t.Fatal("Expected empty catalog to be seeded")
		}

		seeded, err = repo.Seed(ctx, catalog.SeedDatasets(), catalog.SeedSignatures())
		if err != nil {
			t.Fatalf("Second seed failed: %v", err)
		}
		if seeded {
			t.Error("Expected populated catalog to be left alone")
		}

		mem := catalog.Default()
		for _, crop := range []string{catalog.CropCotton, catalog.CropCoconut} {
			got, err := repo.Signatures(ctx, crop)
			if err != nil {
				t.Fatalf("Failed to load %s signatures: %v", crop, err)
			}
			want, _ := mem.Signatures(ctx, crop)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("%s signatures differ from seed:\n got %+v\nwant %+v", crop, got, want)
			}
		}

		datasets, err := repo.Datasets(ctx)
		if err != nil {
			t.Fatalf("Failed to list datasets: %v", err)
		}
		if len(datasets) != 2 || datasets[0].CropType != catalog.CropCoconut {
			t.Errorf("Unexpected datasets %+v", datasets)
		}
	})
}

func TestCatalogRepository_UnknownCrop(t *testing.T) {
	repo := NewCatalogRepository(setupSQLiteDB(t))
	ctx := context.Background()

	if _, err := repo.Seed(ctx, catalog.SeedDatasets(), catalog.SeedSignatures()); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}

	_, err := repo.Signatures(ctx, "banana")
	if !errors.Is(err, catalog.ErrNoCatalog) {
		t.Errorf("Expected ErrNoCatalog, got %v", err)
	}
}

func TestCatalogRepository_SeedRejectsOrphanSignature(t *testing.T) {
	repo := NewCatalogRepository(setupSQLiteDB(t))
	ctx := context.Background()

	sigs := []catalog.Signature{{
		Label:    "banana_sigatoka",
		CropType: "banana",
		Name:     "Sigatoka",
		Texture:  catalog.TextureDescriptor{Contrast: catalog.ContrastLow, Pattern: catalog.PatternUniform},
	}}

	if _, err := repo.Seed(ctx, catalog.SeedDatasets(), sigs); err == nil {
		t.Fatal("Expected error for signature without dataset")
	}

	datasets, err := repo.Datasets(ctx)
	if err != nil {
		t.Fatalf("Failed to list datasets: %v", err)
	}
	if len(datasets) != 0 {
		t.Errorf("Expected failed seed to roll back, found %d datasets", len(datasets))
	}
}

func TestDBType(t *testing.T) {
	if got := setupSQLiteDB(t).Type(); got != TypeSQLite {
		t.Errorf("Expected %s, got %s", TypeSQLite, got)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{dbType: TypePostgres}
	if got := pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?"); got != "SELECT a FROM t WHERE b = $1 AND c = $2" {
		t.Errorf("Unexpected postgres query %q", got)
	}

	lite := &DB{dbType: TypeSQLite}
	if got := lite.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("SQLite query should be unchanged, got %q", got)
	}
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := LoadMigrations(migrationsDir())
	if err != nil {
		t.Fatalf("Failed to load migrations: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("Expected at least 2 migrations, got %d", len(migrations))
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version >= migrations[i].Version {
			t.Errorf("Migrations not sorted: %s before %s", migrations[i-1].Name, migrations[i].Name)
		}
	}
}
