package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup refreshes the cached dashboard summary.
	TaskDashboardWarmup = "dashboard:refresh"
	// TaskHousekeeping prunes stale counters and audit rows.
	TaskHousekeeping = "housekeeping:cleanup"
)

// DashboardWarmupPayload scopes a warmup run.
type DashboardWarmupPayload struct {
	Month string `json:"month,omitempty"`
}

// NewDashboardWarmupTask constructs a dashboard warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// HousekeepingPayload controls retention windows for the cleanup run.
type HousekeepingPayload struct {
	CounterRetentionDays int `json:"counter_retention_days,omitempty"`
	AuditRetentionDays   int `json:"audit_retention_days,omitempty"`
}

// NewHousekeepingTask constructs a housekeeping task.
func NewHousekeepingTask(payload HousekeepingPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHousekeeping, data), nil
}
