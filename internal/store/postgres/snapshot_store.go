package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ascendly/marketsnap/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. The whole
// snapshot lives in a JSONB column; a few scalar columns are lifted out for
// indexing and calibration review queries.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a SnapshotStore backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Save archives one computed snapshot. Saving the same snapshot ID twice is a
// no-op: snapshots are immutable once persisted.
func (s *SnapshotStore) Save(ctx context.Context, snap domain.MarketSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("postgres: marshal snapshot %s: %w", snap.SnapshotID, err)
	}

	const query = `
		INSERT INTO snapshots (
			snapshot_id, keyword, marketplace, page, schema_version,
			cpi_score, cpi_label, payload, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (snapshot_id) DO NOTHING`

	_, err = s.pool.Exec(ctx, query,
		snap.SnapshotID, snap.Keyword, snap.Marketplace, snap.Page, snap.SchemaVersion,
		snap.CPI.Score, string(snap.CPI.Label), payload, snap.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save snapshot %s: %w", snap.SnapshotID, err)
	}
	return nil
}

// Get fetches one archived snapshot by ID.
func (s *SnapshotStore) Get(ctx context.Context, snapshotID string) (domain.MarketSnapshot, error) {
	const query = `SELECT payload FROM snapshots WHERE snapshot_id = $1`

	var payload []byte
	err := s.pool.QueryRow(ctx, query, snapshotID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MarketSnapshot{}, fmt.Errorf("postgres: snapshot %s: %w", snapshotID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("postgres: get snapshot %s: %w", snapshotID, err)
	}

	var snap domain.MarketSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("postgres: decode snapshot %s: %w", snapshotID, err)
	}
	return snap, nil
}

// ListRecent returns the newest snapshots for a marketplace, most recent
// first.
func (s *SnapshotStore) ListRecent(ctx context.Context, marketplace string, limit int) ([]domain.MarketSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
		SELECT payload FROM snapshots
		WHERE marketplace = $1
		ORDER BY computed_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, marketplace, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketSnapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot row: %w", err)
		}
		var snap domain.MarketSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, fmt.Errorf("postgres: decode snapshot row: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate snapshot rows: %w", err)
	}
	return out, nil
}
