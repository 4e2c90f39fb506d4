package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	coreconfig "github.com/devsque/codegate/core/config"
	coredatabase "github.com/devsque/codegate/core/database"
	"github.com/devsque/codegate/core/logger"
)

// Storage backends understood by Run.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	Storage    string
	Database   coredatabase.Config
	SQLitePath string

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) (coredatabase.MigrationSummary, error)
	OpenSQLite func(path string) (*gorm.DB, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// At most one of DB and SQLite is set.
type Result struct {
	DB     *sqlx.DB
	SQLite *gorm.DB
}

// Close releases the open database handles.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	if r.SQLite != nil {
		if sqlDB, err := r.SQLite.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		} else {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run initializes the logger and opens the configured storage.
// PostgreSQL is migrated before it is handed out.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	switch opts.Storage {
	case StoragePostgres:
		return openPostgres(opts)
	case StorageSQLite:
		open := opts.OpenSQLite
		if open == nil {
			open = coredatabase.OpenSQLite
		}
		db, err := open(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: sqlite initialization failed: %w", err)
		}
		return &Result{SQLite: db}, nil
	case StorageMemory, "":
		logger.DB.Warn("in-memory storage, records are lost on restart",
			slog.String("event", "db.connect"),
			slog.String("driver", StorageMemory),
		)
		return &Result{}, nil
	}
	return nil, fmt.Errorf("bootstrap: unknown storage %q", opts.Storage)
}

func openPostgres(opts Options) (*Result, error) {
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if _, err := migrate(opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db}, nil
}
