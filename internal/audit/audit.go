// Package audit exports reconciliation snapshots to a PostgreSQL database
// for long-term record keeping and offline analysis.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/LeJamon/goXRPLtrade/internal/reconcile"
)

// Config holds the database configuration.
type Config struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string
}

func (c Config) connString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, sslMode,
	)
}

// Exporter writes settlement records. Safe for concurrent use; database/sql
// pools connections internally.
type Exporter struct {
	db *sql.DB
}

// NewExporter opens a connection pool and verifies it with a ping.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	db, err := sql.Open("postgres", cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: connect to database: %w", err)
	}
	return &Exporter{db: db}, nil
}

// Close closes the connection pool.
func (e *Exporter) Close() error {
	return e.db.Close()
}

// EnsureSchema creates the settlements table when missing.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS settlements (
			account     TEXT        NOT NULL,
			sequence    BIGINT      NOT NULL,
			xrp_diff    TEXT        NOT NULL,
			cur_diff    TEXT        NOT NULL,
			deleted     BOOLEAN     NOT NULL,
			events      INTEGER     NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (account, sequence)
		)
	`
	if _, err := e.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("audit: create schema: %w", err)
	}
	return nil
}

// Record upserts one settlement snapshot. Re-recording the same offer
// replaces the previous row, so repeated exports stay idempotent.
func (e *Exporter) Record(ctx context.Context, snap reconcile.Snapshot) error {
	const query = `
		INSERT INTO settlements (account, sequence, xrp_diff, cur_diff, deleted, events, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account, sequence) DO UPDATE SET
			xrp_diff = EXCLUDED.xrp_diff,
			cur_diff = EXCLUDED.cur_diff,
			deleted = EXCLUDED.deleted,
			events = EXCLUDED.events,
			recorded_at = EXCLUDED.recorded_at
	`
	_, err := e.db.ExecContext(ctx, query,
		snap.Account, int64(snap.Sequence), snap.XRPDiff, snap.CurDiff,
		snap.Deleted, snap.Events, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("audit: record %s:%d: %w", snap.Account, snap.Sequence, err)
	}
	return nil
}

// RecordAll upserts a batch of snapshots in one transaction.
func (e *Exporter) RecordAll(ctx context.Context, snaps []reconcile.Snapshot) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("audit: begin batch: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO settlements (account, sequence, xrp_diff, cur_diff, deleted, events, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account, sequence) DO UPDATE SET
			xrp_diff = EXCLUDED.xrp_diff,
			cur_diff = EXCLUDED.cur_diff,
			deleted = EXCLUDED.deleted,
			events = EXCLUDED.events,
			recorded_at = EXCLUDED.recorded_at
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("audit: prepare batch: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, snap := range snaps {
		if _, err := stmt.ExecContext(ctx,
			snap.Account, int64(snap.Sequence), snap.XRPDiff, snap.CurDiff,
			snap.Deleted, snap.Events, now); err != nil {
			return fmt.Errorf("audit: record %s:%d: %w", snap.Account, snap.Sequence, err)
		}
	}
	return tx.Commit()
}

// ListAccount returns the recorded settlements for one account in sequence
// order.
func (e *Exporter) ListAccount(ctx context.Context, account string) ([]reconcile.Snapshot, error) {
	const query = `
		SELECT account, sequence, xrp_diff, cur_diff, deleted, events
		FROM settlements
		WHERE account = $1
		ORDER BY sequence
	`
	rows, err := e.db.QueryContext(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("audit: list %s: %w", account, err)
	}
	defer rows.Close()

	var out []reconcile.Snapshot
	for rows.Next() {
		var snap reconcile.Snapshot
		var sequence int64
		if err := rows.Scan(&snap.Account, &sequence, &snap.XRPDiff, &snap.CurDiff,
			&snap.Deleted, &snap.Events); err != nil {
			return nil, fmt.Errorf("audit: scan settlement: %w", err)
		}
		snap.Sequence = uint32(sequence)
		out = append(out, snap)
	}
	return out, rows.Err()
}
