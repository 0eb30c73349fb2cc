package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// Connect opens a pooled connection to Postgres and verifies it with a ping.
// statementTimeoutMS is forwarded to the server as a run-time parameter so a
// stuck statement fails the request instead of holding a handler forever.
func Connect(dsn string, statementTimeoutMS int, timeout time.Duration) (*sql.DB, error) {
	dsn, err := withStatementTimeout(dsn, statementTimeoutMS)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database within %v: %w (close also failed: %v)", timeout, err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

func withStatementTimeout(dsn string, timeoutMS int) (string, error) {
	if timeoutMS <= 0 {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	q := u.Query()
	q.Set("statement_timeout", strconv.Itoa(timeoutMS))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
