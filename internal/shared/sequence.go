package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Document number prefixes, one per document variant.
const (
	PrefixLiquidation     = "LIQ"
	PrefixDebitMemo       = "DM"
	PrefixCheckVoucher    = "CV"
	PrefixDisbursement    = "DISB"
	PrefixMaterialRequest = "REQ"
)

// FormatNumber renders a document number as <PREFIX>-<YYYYMMDD>-<seq:03d>.
func FormatNumber(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), seq)
}

// Sequencer hands out the next day-scoped sequence value for a prefix.
// Implementations must be safe against concurrent callers.
type Sequencer interface {
	Next(ctx context.Context, tx pgx.Tx, prefix string, day time.Time) (int64, error)
}

// PgSequencer increments a counter row per (prefix, day) atomically. Running
// inside the caller's insert transaction means a failed insert rolls the
// counter back with it, so no document is ever persisted without a number.
type PgSequencer struct{}

// NewPgSequencer constructs a PgSequencer.
func NewPgSequencer() *PgSequencer {
	return &PgSequencer{}
}

// Next returns the next 1-based sequence for the prefix on the given day.
func (s *PgSequencer) Next(ctx context.Context, tx pgx.Tx, prefix string, day time.Time) (int64, error) {
	var value int64
	err := tx.QueryRow(ctx, `INSERT INTO document_counters (prefix, day, value)
VALUES ($1, $2, 1)
ON CONFLICT (prefix, day) DO UPDATE SET value = document_counters.value + 1
RETURNING value`, prefix, day.Format("2006-01-02")).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("shared: next sequence for %s: %w", prefix, err)
	}
	return value, nil
}
