package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/thriftstock/thriftstock/internal/backend"
	"github.com/thriftstock/thriftstock/internal/refdata"
	"github.com/thriftstock/thriftstock/jobs"
)

type stubBackend struct {
	err error
}

func (s stubBackend) Health(ctx context.Context) (backend.Health, error) {
	if s.err != nil {
		return backend.Health{}, s.err
	}
	return backend.Health{Status: "healthy"}, nil
}

type stubLoader struct {
	err  error
	snap *refdata.Snapshot
}

func (s stubLoader) Load(ctx context.Context) error { return s.err }
func (s stubLoader) Snapshot() *refdata.Snapshot {
	if s.snap == nil {
		return &refdata.Snapshot{}
	}
	return s.snap
}

func TestCheckCommandJSONSuccess(t *testing.T) {
	snap := &refdata.Snapshot{
		Departments: []backend.Department{{DepartmentID: 1}, {DepartmentID: 2}},
		Statuses:    []backend.Status{{StatusID: 5}},
	}
	stdout := new(bytes.Buffer)
	code := CheckCommand(context.Background(), stubBackend{}, stubLoader{snap: snap}, CheckOptions{JSONOutput: true, Stdout: stdout})
	require.Equal(t, 0, code)

	var summary CheckSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.True(t, summary.OK)
	require.Equal(t, "healthy", summary.Backend)
	require.Equal(t, 2, summary.Counts["departments"])
	require.Equal(t, 1, summary.Counts["item-statuses"])
	require.Equal(t, 0, summary.Counts["tags"])
}

func TestCheckCommandBackendDown(t *testing.T) {
	stdout := new(bytes.Buffer)
	down := &backend.TransportError{Method: "GET", URL: "http://localhost:8000/health", Err: errors.New("connection refused")}
	code := CheckCommand(context.Background(), stubBackend{err: down}, stubLoader{}, CheckOptions{Stdout: stdout})
	require.Equal(t, 1, code)
	require.Contains(t, stdout.String(), "backend: unreachable")
	require.Contains(t, stdout.String(), "Could not reach the inventory backend")
}

func TestCheckCommandRefdataFailure(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := CheckCommand(context.Background(), stubBackend{}, stubLoader{err: errors.New("refdata: load sizes: HTTP error! status: 500")}, CheckOptions{Stdout: stdout})
	require.Equal(t, 10, code)
	require.Contains(t, stdout.String(), "load sizes")
}

type stubEnqueuer struct {
	tasks []*asynq.Task
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "abc", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubInspector struct{}

func (stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Pending: 2, Scheduled: 1}, nil
}

func (stubInspector) Close() error { return nil }

func TestJobsCommand(t *testing.T) {
	enq := &stubEnqueuer{}
	c := NewJobsCLIWith(enq, stubInspector{})
	ctx := context.Background()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	require.Equal(t, 0, c.JobsCommand(ctx, []string{"trigger", jobs.TaskRefdataRefresh}, stdout, stderr))
	require.Equal(t, "enqueued refdata:refresh as abc\n", stdout.String())
	require.Len(t, enq.tasks, 1)

	stdout.Reset()
	require.Equal(t, 0, c.JobsCommand(ctx, []string{"status"}, stdout, stderr))
	require.Equal(t, "queue=default pending=2 active=0 scheduled=1 retry=0\n", stdout.String())

	require.Equal(t, 1, c.JobsCommand(ctx, []string{"trigger", "reports:nightly"}, stdout, stderr))
	require.True(t, strings.Contains(stderr.String(), "unsupported job"))
	require.Equal(t, 1, c.JobsCommand(ctx, nil, stdout, stderr))
}
