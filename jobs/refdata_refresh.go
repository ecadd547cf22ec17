package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/thriftstock/thriftstock/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Refresher reloads every reference collection.
type Refresher interface {
	Refetch(ctx context.Context) error
}

// Publisher broadcasts a reference data change.
type Publisher interface {
	Publish(ctx context.Context) error
}

// RefdataRefreshJob reloads reference data from the backend and, on success,
// tells console instances to drop their cached copy.
type RefdataRefreshJob struct {
	Store     Refresher
	Publisher Publisher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
}

// NewRefdataRefreshJob wires dependencies for the refresh handler.
func NewRefdataRefreshJob(store Refresher, publisher Publisher, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefdataRefreshJob {
	return &RefdataRefreshJob{
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
		Metrics:   metrics,
		Timeout:   time.Minute,
	}
}

// Handle processes refdata refresh tasks. Load failures are returned so asynq retries.
func (j *RefdataRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("refdata refresh: handler not configured")
	}
	var payload RefdataRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskRefdataRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()

	loadCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	if err := j.Store.Refetch(loadCtx); err != nil {
		resultErr = err
		logger.Error("refdata refresh failed", slog.Any("error", err))
		return resultErr
	}
	if j.Publisher != nil {
		if err := j.Publisher.Publish(ctx); err != nil {
			resultErr = err
			logger.Error("refdata bump failed", slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("refdata refreshed", slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *RefdataRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRefdataRefresh))
	}
	return slog.Default().With(slog.String("job", TaskRefdataRefresh))
}

func (j *RefdataRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
