// Package store provides an optional PostgreSQL archive of processed
// tickets and master incidents. The engine runs fully without it; when
// configured it gives operators a durable audit trail beyond the bounded
// dashboard feed.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartsupport/triage-engine/pkg/triage"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// DefaultConfig returns a disabled archive pointing at a local database.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Host:     "localhost",
		Port:     5432,
		Database: "triage",
		User:     "triage",
		SSLMode:  "disable",
	}
}

// DSN builds the connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// Store archives processed tickets and incidents in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection and verifies it.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse archive dsn: %w", err)
	}
	poolCfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the archive tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS processed_tickets (
    id                 TEXT PRIMARY KEY,
    text               TEXT NOT NULL,
    category           TEXT NOT NULL,
    urgency            DOUBLE PRECISION NOT NULL,
    is_duplicate       BOOLEAN NOT NULL DEFAULT FALSE,
    master_incident_id TEXT,
    assigned_agent     TEXT,
    processed_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS incidents (
    id          TEXT PRIMARY KEY,
    member_ids  TEXT[] NOT NULL,
    sample_text TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL
);`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate archive: %w", err)
	}
	return nil
}

// SaveTicket upserts one processed ticket. Re-deliveries that slip past the
// lock TTL overwrite rather than duplicate.
func (s *Store) SaveTicket(ctx context.Context, t *triage.Ticket, agentID string) error {
	const q = `
INSERT INTO processed_tickets (id, text, category, urgency, is_duplicate, master_incident_id, assigned_agent, processed_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), now())
ON CONFLICT (id) DO UPDATE SET
    category           = EXCLUDED.category,
    urgency            = EXCLUDED.urgency,
    is_duplicate       = EXCLUDED.is_duplicate,
    master_incident_id = EXCLUDED.master_incident_id,
    assigned_agent     = EXCLUDED.assigned_agent,
    processed_at       = EXCLUDED.processed_at`

	if _, err := s.pool.Exec(ctx, q,
		t.ID, t.Text, string(t.Category), t.Urgency, t.IsDuplicate, t.MasterIncidentID, agentID); err != nil {
		return fmt.Errorf("save ticket %s: %w", t.ID, err)
	}
	return nil
}

// SaveIncident stores one master incident.
func (s *Store) SaveIncident(ctx context.Context, inc *triage.Incident) error {
	const q = `
INSERT INTO incidents (id, member_ids, sample_text, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, q,
		inc.ID, inc.MemberTicketIDs, inc.SampleText, inc.CreatedAt); err != nil {
		return fmt.Errorf("save incident %s: %w", inc.ID, err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
