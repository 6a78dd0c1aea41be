package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultCounterRetentionDays = 90
	defaultAuditRetentionDays   = 365
)

// HousekeepingJob removes document counter rows and audit entries past
// their retention window. Counters older than the window can never be
// reused because numbering is day-scoped.
type HousekeepingJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewHousekeepingJob wires dependencies for the cleanup handler.
func NewHousekeepingJob(pool *pgxpool.Pool, logger *slog.Logger) *HousekeepingJob {
	return &HousekeepingJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes housekeeping tasks.
func (j *HousekeepingJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("housekeeping: handler not configured")
	}
	var payload HousekeepingPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CounterRetentionDays <= 0 {
		payload.CounterRetentionDays = defaultCounterRetentionDays
	}
	if payload.AuditRetentionDays <= 0 {
		payload.AuditRetentionDays = defaultAuditRetentionDays
	}

	now := j.now()
	logger := j.logger()

	counterCutoff := now.AddDate(0, 0, -payload.CounterRetentionDays)
	tag, err := j.Pool.Exec(ctx, `DELETE FROM document_counters WHERE day < $1`, counterCutoff)
	if err != nil {
		logger.Error("prune document counters", slog.Any("error", err))
		return err
	}
	counters := tag.RowsAffected()

	auditCutoff := now.AddDate(0, 0, -payload.AuditRetentionDays)
	tag, err = j.Pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, auditCutoff)
	if err != nil {
		logger.Error("prune audit logs", slog.Any("error", err))
		return err
	}

	logger.Info("housekeeping complete",
		slog.Int64("counters_removed", counters),
		slog.Int64("audit_rows_removed", tag.RowsAffected()))
	return nil
}

func (j *HousekeepingJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *HousekeepingJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
