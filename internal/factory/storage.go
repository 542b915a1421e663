package factory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/config"
	"github.com/amelia751/cloudly/internal/store/postgres"
	"github.com/amelia751/cloudly/internal/store/sqlite"
	"github.com/amelia751/cloudly/internal/store/sqlstore"
)

// NewStore opens the store selected by cfg.DBDriver. Postgres connects with
// exponential backoff bounded by the bootstrap timeout so the service can
// start alongside its database.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sqlstore.SQLStore, error) {
	switch cfg.DBDriver {
	case "sqlite":
		st, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		log.Info().Str("driver", "sqlite").Str("path", cfg.SQLitePath).Msg("store ready")
		return st, nil

	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("CLOUDLY_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := connectWithBackoff(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		st, err := postgres.NewWithDB(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		log.Info().Str("driver", "postgres").Msg("store ready")
		return st, nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

func connectWithBackoff(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sql.DB, error) {
	exp := backoff.NewExponentialBackOff()
	exp.MaxElapsedTime = cfg.BootstrapTimeout()
	exp.Reset()

	attempts := 0
	var db *sql.DB
	op := func() error {
		attempts++
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempts).Msg("postgres not reachable yet")
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(exp, ctx)); err != nil {
		return nil, fmt.Errorf("connect postgres after %d attempts: %w", attempts, err)
	}
	return db, nil
}
