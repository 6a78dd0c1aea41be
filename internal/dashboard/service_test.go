package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	builds int
}

func (r *stubRepo) CountByStatus(_ context.Context, module string) (map[string]int, error) {
	if module == "liquidations" {
		r.builds++
		return map[string]int{"draft": 2, "approved": 5}, nil
	}
	return map[string]int{}, nil
}

func (r *stubRepo) SumMonth(_ context.Context, _, _ time.Time) (MonthTotals, error) {
	return MonthTotals{
		LiquidationExpenses: decimal.RequireFromString("42500.50"),
		VoucherAmount:       decimal.RequireFromString("120000"),
		DisbursementAmount:  decimal.RequireFromString("98000.25"),
	}, nil
}

func (r *stubRepo) PendingApprovals(_ context.Context) (map[string]int, error) {
	return map[string]int{"liquidations": 1, "check_vouchers": 3}, nil
}

func (r *stubRepo) InventoryValuation(_ context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1500000"), nil
}

func newTestService(t *testing.T) (*Service, *stubRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &stubRepo{}
	svc := NewService(repo, client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time {
		return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	}
	return svc, repo, mr
}

func TestSummaryBuildsAndCaches(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()

	summary, err := svc.Summary(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "2025-03", summary.Month)
	require.Equal(t, 5, summary.DocumentCounts["liquidations"]["approved"])
	require.True(t, summary.LiquidationExpenses.Equal(decimal.RequireFromString("42500.50")))
	require.Equal(t, 3, summary.PendingApprovals["check_vouchers"])
	require.Equal(t, 1, repo.builds)
	require.True(t, mr.Exists("dashboard:summary:2025-03"))

	// Second read comes from the cache, not the repository.
	again, err := svc.Summary(ctx, "")
	require.NoError(t, err)
	require.Equal(t, summary.Month, again.Month)
	require.Equal(t, 1, repo.builds)
}

func TestSummaryExplicitMonth(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()

	summary, err := svc.Summary(ctx, "2025-01")
	require.NoError(t, err)
	require.Equal(t, "2025-01", summary.Month)
	require.True(t, mr.Exists("dashboard:summary:2025-01"))

	_, err = svc.Summary(ctx, "January")
	require.Error(t, err)
}

func TestSummaryCacheExpiry(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 1, repo.builds)

	mr.FastForward(11 * time.Minute)

	_, err = svc.Summary(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 2, repo.builds)
}

func TestWarmPopulatesCache(t *testing.T) {
	svc, repo, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Warm(ctx))
	require.Equal(t, 1, repo.builds)
	require.True(t, mr.Exists("dashboard:summary:2025-03"))

	// Subsequent reads hit the warmed cache.
	_, err := svc.Summary(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 1, repo.builds)
}
