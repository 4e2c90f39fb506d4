package bootstrap

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	coreconfig "github.com/devsque/codegate/core/config"
	coredatabase "github.com/devsque/codegate/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunMemory(t *testing.T) {
	res, err := Run(Options{Config: &coreconfig.Config{}, Storage: StorageMemory, LoggerInit: noLogger})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DB != nil || res.SQLite != nil {
		t.Fatalf("memory storage must not open databases: %+v", res)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunPostgresMigrates(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.ExpectClose()

	migrated := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Storage:    StoragePostgres,
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.NewDb(sqlDB, "postgres"), nil
		},
		Migrate: func(coredatabase.Config) (coredatabase.MigrationSummary, error) {
			migrated = true
			return coredatabase.MigrationSummary{ToVersion: 1}, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !migrated || res.DB == nil {
		t.Fatalf("expected migrated postgres result, migrated=%v", migrated)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRunPostgresMigrationFailureClosesDB(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.ExpectClose()

	_, err = Run(Options{
		Config:     &coreconfig.Config{},
		Storage:    StoragePostgres,
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.NewDb(sqlDB, "postgres"), nil
		},
		Migrate: func(coredatabase.Config) (coredatabase.MigrationSummary, error) {
			return coredatabase.MigrationSummary{}, errors.New("dirty database")
		},
	})
	if err == nil {
		t.Fatal("expected migration error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db must be closed after failed migration: %v", err)
	}
}

func TestRunSQLite(t *testing.T) {
	var opened string
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Storage:    StorageSQLite,
		SQLitePath: "data/test.db",
		LoggerInit: noLogger,
		OpenSQLite: func(path string) (*gorm.DB, error) {
			opened = path
			return &gorm.DB{}, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if opened != "data/test.db" || res.SQLite == nil {
		t.Fatalf("unexpected sqlite result: opened=%q", opened)
	}
}

func TestRunUnknownStorage(t *testing.T) {
	if _, err := Run(Options{Config: &coreconfig.Config{}, Storage: "mongo", LoggerInit: noLogger}); err == nil {
		t.Fatal("expected error for unknown storage")
	}
}
