// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package store manages the PostgreSQL connection pool and schema
// migrations.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	connectRetryBase = 500 * time.Millisecond
	connectRetryMax  = 5
)

// Postgres owns the pgx connection pool shared by repositories.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against databaseURL and verifies connectivity
// with a pinged handshake. Transient failures during startup (database
// container still booting, DNS not yet resolvable) are retried with
// exponential backoff before giving up.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_CONFIG_INVALID").
			With("operation", "parse database url").
			Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectRetryMax, retry.NewExponential(connectRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return &Postgres{pool: pool}, nil
}

// Pool exposes the underlying pool for repositories.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Close releases all pooled connections.
func (p *Postgres) Close() {
	p.pool.Close()
}
