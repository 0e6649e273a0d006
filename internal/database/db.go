package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns          = int32(4)
	defaultMinConns          = int32(2)
	defaultMaxConnLifetime   = 10 * time.Minute
	defaultMaxConnIdleTime   = 5 * time.Minute
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = 5 * time.Second
)

// Database wraps the Postgres connection pool. All persistence for the
// catalog, prices, collection, and sync status goes through it.
type Database struct {
	pool *pgxpool.Pool
}

// New creates a database handle from a connection string and verifies the
// connection with a ping.
func New(ctx context.Context, connString string) (*Database, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("error parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultMaxConns
	cfg.MinConns = defaultMinConns
	cfg.MaxConnLifetime = defaultMaxConnLifetime
	cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Database{pool: pool}, nil
}

// Close closes the connection pool.
func (db *Database) Close() {
	db.pool.Close()
}

// CreateTables creates the catalog tables if they don't exist. The unique
// constraints are what make repeated sync runs idempotent.
func (db *Database) CreateTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS expansions (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			series VARCHAR(255) NOT NULL DEFAULT '',
			code VARCHAR(64) NOT NULL DEFAULT '',
			total INT NOT NULL DEFAULT 0,
			printed_total INT NOT NULL DEFAULT 0,
			release_date VARCHAR(32) NOT NULL DEFAULT '',
			language VARCHAR(16) NOT NULL DEFAULT '',
			logo_url TEXT NOT NULL DEFAULT '',
			symbol_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			supertype VARCHAR(64) NOT NULL DEFAULT '',
			types TEXT[] NOT NULL DEFAULT '{}',
			subtypes TEXT[] NOT NULL DEFAULT '{}',
			rarity VARCHAR(64) NOT NULL DEFAULT '',
			number VARCHAR(32) NOT NULL DEFAULT '',
			expansion_id VARCHAR(64) NOT NULL DEFAULT '',
			image_small TEXT NOT NULL DEFAULT '',
			image_large TEXT NOT NULL DEFAULT '',
			abilities JSONB,
			attacks JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS card_prices (
			card_id VARCHAR(64) NOT NULL,
			kind VARCHAR(16) NOT NULL,
			sub_key VARCHAR(32) NOT NULL,
			company VARCHAR(32) NOT NULL DEFAULT '',
			condition VARCHAR(32) NOT NULL DEFAULT '',
			grade VARCHAR(16) NOT NULL DEFAULT '',
			currency VARCHAR(8) NOT NULL DEFAULT 'USD',
			market DECIMAL(15,2) NOT NULL,
			low DECIMAL(15,2) NOT NULL DEFAULT 0,
			mid DECIMAL(15,2) NOT NULL DEFAULT 0,
			high DECIMAL(15,2) NOT NULL DEFAULT 0,
			trend DECIMAL(15,4) NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(card_id, kind, sub_key, company)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_status (
			kind VARCHAR(32) PRIMARY KEY,
			in_progress BOOLEAN NOT NULL DEFAULT false,
			card_count INT NOT NULL DEFAULT 0,
			expansion_count INT NOT NULL DEFAULT 0,
			price_count INT NOT NULL DEFAULT 0,
			last_page_processed INT NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			last_run_at TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS collection_items (
			user_id VARCHAR(64) NOT NULL,
			card_id VARCHAR(64) NOT NULL,
			quantity INT NOT NULL DEFAULT 1,
			condition VARCHAR(32) NOT NULL DEFAULT 'NM',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY(user_id, card_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error creating tables: %w", err)
		}
	}
	return nil
}
