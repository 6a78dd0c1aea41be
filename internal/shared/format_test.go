package shared

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "₱45,000.00", FormatAmount(decimal.NewFromInt(45000)))
	require.Equal(t, "₱1,234,567.89", FormatAmount(decimal.RequireFromString("1234567.89")))
	require.Equal(t, "₱0.00", FormatAmount(decimal.Zero))
	require.Equal(t, "₱99.50", FormatAmount(decimal.RequireFromString("99.499").Round(2)))
}

func TestStatusLabel(t *testing.T) {
	require.Equal(t, "Approved For Purchase", StatusLabel("approved_for_purchase"))
	require.Equal(t, "Bank Transfer", StatusLabel("bank_transfer"))
	require.Equal(t, "Draft", StatusLabel("draft"))
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "Mar 14, 2025", FormatDate(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
	require.Empty(t, FormatDate(time.Time{}))
}
