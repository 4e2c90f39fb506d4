package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/devsque/codegate/core/logger"
)

const (
	readyTimeout = 30 * time.Second
	readyBackoff = 2 * time.Second
	pingTimeout  = 5 * time.Second
)

// Connect opens the PostgreSQL pool and waits until the server answers pings.
func Connect(cfg Config) (*sqlx.DB, error) {
	cfg = cfg.WithDefaults()
	attrs := []slog.Attr{
		slog.String("event", "db.connect"),
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	db, err := sqlx.Open("postgres", cfg.KeywordDSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	start := time.Now()
	if err := waitReady(context.Background(), db, readyTimeout); err != nil {
		_ = db.Close()
		logger.DB.LogAttrs(context.Background(), slog.LevelError, "db connect failed", append(attrs,
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	logger.DB.LogAttrs(context.Background(), slog.LevelInfo, "db connected", append(attrs,
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)...)
	return db, nil
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// waitReady pings db until it answers or timeout passes, so the bot can
// start alongside a database container that is still booting.
func waitReady(ctx context.Context, db pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		pctx, pcancel := context.WithTimeout(ctx, pingTimeout)
		err := db.PingContext(pctx)
		pcancel()
		if err == nil {
			return nil
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.wait"),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %d attempts: %w", attempt, err)
		case <-time.After(readyBackoff):
		}
	}
}
