package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestListMigrationFilesSortsUpOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_index.up.sql",
		"000001_projects.up.sql",
		"000001_projects.down.sql",
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	got := listMigrationFiles(dir)
	want := []string{"000001_projects.up.sql", "000002_index.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}
	got := selectApplied(files, 1, 3)
	want := []string{"000002_b.up.sql", "000003_c.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("applied = %v, want %v", got, want)
	}
	if out := selectApplied(files, 3, 3); out != nil {
		t.Fatalf("expected nothing applied, got %v", out)
	}
}

func TestConfigDefaultsAndDSN(t *testing.T) {
	cfg := Config{Host: "db", User: "bot", Password: "pw", Name: "codegate"}.WithDefaults()
	if cfg.Port != "5432" || cfg.SSLMode != "disable" || cfg.MigrationsDir != "migrations" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if got, want := cfg.URL(), "postgres://bot:pw@db:5432/codegate?sslmode=disable"; got != want {
		t.Fatalf("url = %q, want %q", got, want)
	}
	if got, want := cfg.KeywordDSN(), "user=bot password=pw host=db port=5432 dbname=codegate sslmode=disable"; got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}
