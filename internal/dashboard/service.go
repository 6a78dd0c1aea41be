package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix = "dashboard:summary:"
	cacheTTL       = 10 * time.Minute
)

// Summary is the dashboard payload for one month window.
type Summary struct {
	Month               string                    `json:"month"`
	DocumentCounts      map[string]map[string]int `json:"document_counts"`
	PendingApprovals    map[string]int            `json:"pending_approvals"`
	LiquidationExpenses decimal.Decimal           `json:"liquidation_expenses"`
	VoucherAmount       decimal.Decimal           `json:"voucher_amount"`
	DisbursementAmount  decimal.Decimal           `json:"disbursement_amount"`
	InventoryValue      decimal.Decimal           `json:"inventory_value"`
	GeneratedAt         time.Time                 `json:"generated_at"`
}

// RepositoryPort abstracts the aggregation queries.
type RepositoryPort interface {
	CountByStatus(ctx context.Context, module string) (map[string]int, error)
	SumMonth(ctx context.Context, from, to time.Time) (MonthTotals, error)
	PendingApprovals(ctx context.Context) (map[string]int, error)
	InventoryValuation(ctx context.Context) (decimal.Decimal, error)
}

// Service builds and caches dashboard summaries. Concurrent cache misses for
// the same month collapse into a single build.
type Service struct {
	repo   RepositoryPort
	cache  *redis.Client
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewService constructs a dashboard service.
func NewService(repo RepositoryPort, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// monthWindow resolves a YYYY-MM string to [start, end). Empty means the
// current month.
func (s *Service) monthWindow(month string) (string, time.Time, time.Time, error) {
	var start time.Time
	if month == "" {
		now := s.now().UTC()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return "", time.Time{}, time.Time{}, fmt.Errorf("invalid month %q", month)
		}
		start = parsed
	}
	return start.Format("2006-01"), start, start.AddDate(0, 1, 0), nil
}

// Summary returns the cached summary for the month, building it on a miss.
func (s *Service) Summary(ctx context.Context, month string) (Summary, error) {
	key, from, to, err := s.monthWindow(month)
	if err != nil {
		return Summary{}, err
	}

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKeyPrefix+key).Bytes()
		if err == nil {
			var cached Summary
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read", slog.Any("error", err))
		}
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		summary, err := s.build(ctx, key, from, to)
		if err != nil {
			return Summary{}, err
		}
		s.store(ctx, key, summary)
		return summary, nil
	})
	if err != nil {
		return Summary{}, err
	}
	return result.(Summary), nil
}

// Warm rebuilds and caches the current-month summary. Called by the
// background refresh job.
func (s *Service) Warm(ctx context.Context) error {
	key, from, to, err := s.monthWindow("")
	if err != nil {
		return err
	}
	summary, err := s.build(ctx, key, from, to)
	if err != nil {
		return err
	}
	s.store(ctx, key, summary)
	return nil
}

func (s *Service) build(ctx context.Context, month string, from, to time.Time) (Summary, error) {
	summary := Summary{
		Month:          month,
		DocumentCounts: map[string]map[string]int{},
		GeneratedAt:    s.now().UTC(),
	}
	for _, module := range []string{"liquidations", "debit_memos", "check_vouchers", "disbursements", "material_requests"} {
		counts, err := s.repo.CountByStatus(ctx, module)
		if err != nil {
			return Summary{}, fmt.Errorf("count %s: %w", module, err)
		}
		summary.DocumentCounts[module] = counts
	}

	totals, err := s.repo.SumMonth(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("month totals: %w", err)
	}
	summary.LiquidationExpenses = totals.LiquidationExpenses
	summary.VoucherAmount = totals.VoucherAmount
	summary.DisbursementAmount = totals.DisbursementAmount

	summary.PendingApprovals, err = s.repo.PendingApprovals(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("pending approvals: %w", err)
	}

	summary.InventoryValue, err = s.repo.InventoryValuation(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("inventory valuation: %w", err)
	}
	return summary, nil
}

func (s *Service) store(ctx context.Context, month string, summary Summary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+month, raw, cacheTTL).Err(); err != nil {
		s.logger.Warn("dashboard cache write", slog.Any("error", err))
	}
}
