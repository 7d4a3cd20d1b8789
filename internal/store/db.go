// Package store holds the Postgres and Redis connection wrappers shared by
// the API and the worker.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool sizing for a small dashboard API: a handful of concurrent staff
// requests, nothing long-running.
const (
	maxOpenConns    = 12
	maxIdleConns    = 4
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 3 * time.Second
)

// DB wraps sql.DB for the classtrack Postgres database, driven by pgx.
type DB struct {
	Client *sql.DB
}

// NewDB opens a pooled Postgres connection and verifies it is reachable
// within a short timeout.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return &DB{Client: db}, db.PingContext(ctx)
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
