package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // embedded sqlite driver
)

type Config struct {
	// DSN selects the backend: postgres:// / postgresql:// URLs open a
	// postgres connection, anything else is treated as a sqlite file path
	// (":memory:" works for throwaway runs).
	DSN         string
	DialTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS invoices (
	id                TEXT PRIMARY KEY,
	invoice_date      TEXT NOT NULL DEFAULT '',
	supplier_name     TEXT NOT NULL,
	rif               TEXT NOT NULL DEFAULT '',
	invoice_number    TEXT NOT NULL,
	items_description TEXT NOT NULL,
	total_amount      DOUBLE PRECISION NOT NULL DEFAULT 0,
	file_name         TEXT NOT NULL DEFAULT '',
	file_type         TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMP NOT NULL
)`

// Open connects to the configured database and ensures the schema exists.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	driver := "sqlite"
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		driver = "pgx"
	}
	logger.Info("connecting to database", "driver", driver)

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "driver", driver, "error", err)
		return nil, err
	}

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("database ping failed", "driver", driver, "error", err)
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		logger.Error("schema migration failed", "error", err)
		_ = db.Close()
		return nil, err
	}

	logger.Info("database ready", "driver", driver)
	return db, nil
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
