package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/thriftstock/thriftstock/internal/jobs"
)

type fakeRefresher struct {
	err   error
	calls int
}

func (f *fakeRefresher) Refetch(ctx context.Context) error {
	f.calls++
	return f.err
}

type fakePublisher struct {
	published int
}

func (f *fakePublisher) Publish(ctx context.Context) error {
	f.published++
	return nil
}

func newTestJob(store Refresher, pub Publisher) *RefdataRefreshJob {
	return NewRefdataRefreshJob(store, pub, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestRefdataRefreshTaskPayload(t *testing.T) {
	task, err := NewRefdataRefreshTask("")
	require.NoError(t, err)
	assert.Equal(t, TaskRefdataRefresh, task.Type())

	var payload RefdataRefreshPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "cron", payload.Reason)
}

func TestRefdataRefreshPublishesOnSuccess(t *testing.T) {
	store := &fakeRefresher{}
	pub := &fakePublisher{}
	task, err := NewRefdataRefreshTask("manual")
	require.NoError(t, err)

	require.NoError(t, newTestJob(store, pub).Handle(context.Background(), task))
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, pub.published)
}

func TestRefdataRefreshFailureIsRetriedWithoutBump(t *testing.T) {
	store := &fakeRefresher{err: errors.New("refdata: load sizes: HTTP error! status: 500")}
	pub := &fakePublisher{}
	task, err := NewRefdataRefreshTask("cron")
	require.NoError(t, err)

	err = newTestJob(store, pub).Handle(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Equal(t, 0, pub.published)
}

func TestRefdataRefreshBadPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(TaskRefdataRefresh, []byte("{"))
	err := newTestJob(&fakeRefresher{}, nil).Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type fakeInspector struct {
	err error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.QueueInfo{Queue: queue, Pending: 3, Active: 1}, nil
}

func mountJobs(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestJobsHealth(t *testing.T) {
	router := mountJobs(NewHandler(fakeInspector{}, nil, nil))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":1,"retry":0}`, rr.Body.String())

	router = mountJobs(NewHandler(fakeInspector{err: errors.New("redis down")}, nil, nil))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"title":"Service Unavailable","status":503,"detail":"queue unavailable"}`, rr.Body.String())
}

func TestManualRefreshEnqueues(t *testing.T) {
	enq := &fakeEnqueuer{}
	router := mountJobs(NewHandler(nil, NewClientWith(enq), nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/refdata/refresh", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Contains(t, rr.Body.String(), `"task_id":"task-1"`)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskRefdataRefresh, enq.tasks[0].Type())

	form := url.Values{"redirect": {"/reference/departments"}}
	req := httptest.NewRequest(http.MethodPost, "/jobs/refdata/refresh", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/reference/departments", rr.Header().Get("Location"))
}

func TestManualRefreshWithoutClient(t *testing.T) {
	router := mountJobs(NewHandler(nil, nil, nil))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/refdata/refresh", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"detail":"job client not configured"`)
}

type failingEnqueuer struct{}

func (failingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return nil, errors.New("dial tcp 127.0.0.1:6379: connection refused")
}

func (failingEnqueuer) Close() error { return nil }

func TestManualRefreshEnqueueFailure(t *testing.T) {
	router := mountJobs(NewHandler(nil, NewClientWith(failingEnqueuer{}), nil))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/refdata/refresh", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"detail":"could not enqueue refresh"`)
	assert.NotContains(t, rr.Body.String(), "6379")
}
