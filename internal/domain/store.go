package domain

import "context"

// SnapshotStore archives computed snapshots for post-hoc calibration review.
// Writes happen off the request path and are best-effort.
type SnapshotStore interface {
	Save(ctx context.Context, snap MarketSnapshot) error
	Get(ctx context.Context, snapshotID string) (MarketSnapshot, error)
	ListRecent(ctx context.Context, marketplace string, limit int) ([]MarketSnapshot, error)
}

// BlobWriter stores raw provider payloads for audits.
type BlobWriter interface {
	Write(ctx context.Context, key string, payload []byte, contentType string) error
}
