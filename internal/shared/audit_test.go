package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNullableTimeZeroBecomesNull(t *testing.T) {
	v := nullableTime(time.Time{})
	require.False(t, v.Valid, "zero time must reach the database as NULL so NOW() applies")
}

func TestNullableTimeKeepsExplicitStamp(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	v := nullableTime(at)
	require.True(t, v.Valid)
	require.Equal(t, at, v.Time)
}

func TestFreshAuditStampOutlivesRetentionCutoff(t *testing.T) {
	// A zero stamp sorts before every retention cutoff, so it must never
	// reach the table as a literal value. Rows written without an explicit
	// stamp get the database clock and survive the prune.
	cutoff := time.Now().AddDate(0, 0, -365)
	require.True(t, time.Time{}.Before(cutoff))
	require.False(t, nullableTime(time.Time{}).Valid)

	stamped := time.Now()
	require.False(t, stamped.Before(cutoff))
	require.True(t, nullableTime(stamped).Valid)
}
