package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

const dbConnectTimeout = 30 * time.Second

// openDatabase opens the Postgres pool and waits for the instance to answer
// pings, backing off between attempts. Fails once dbConnectTimeout elapses.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	delay := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		pingCtx, cancelPing := context.WithTimeout(waitCtx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancelPing()
		if err == nil {
			return db, nil
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("database not ready")

		select {
		case <-waitCtx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		case <-time.After(delay):
		}
		if delay *= 2; delay > 5*time.Second {
			delay = 5 * time.Second
		}
	}
}
