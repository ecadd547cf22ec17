package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRefdataRefresh reloads reference data and broadcasts the change.
	TaskRefdataRefresh = "refdata:refresh"
)

// RefdataRefreshPayload describes why a refresh was requested.
type RefdataRefreshPayload struct {
	Reason string `json:"reason"`
}

// NewRefdataRefreshTask constructs an Asynq task. An empty reason becomes "cron".
func NewRefdataRefreshTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "cron"
	}
	data, err := json.Marshal(RefdataRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRefdataRefresh, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
