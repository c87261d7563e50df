package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/pipeline"
)

type fakeHeads struct {
	mu   sync.Mutex
	head string
	err  error
}

func (f *fakeHeads) RemoteHead(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, f.err
}

func (f *fakeHeads) set(head string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
}

type fakeRunner struct {
	calls  atomic.Int32
	result func(n int32) (*pipeline.Outcome, error)
	reqs   chan pipeline.PublishRequest
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.PublishRequest) (*pipeline.Outcome, error) {
	n := f.calls.Add(1)
	select {
	case f.reqs <- req:
	default:
	}
	return f.result(n)
}

func testConfig() *config.Config {
	return &config.Config{
		Source:      config.SourceConfig{URL: "https://example.com/css.git", EntryFile: "main.scss"},
		Destination: config.DestinationConfig{Subreddit: "example"},
		Daemon:      config.DaemonConfig{Interval: 20 * time.Millisecond, MetricsAddr: "127.0.0.1:0"},
	}
}

func getHealth(t *testing.T, h http.Handler) HealthResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDaemon_TickRecordsLastRun(t *testing.T) {
	runner := &fakeRunner{
		reqs: make(chan pipeline.PublishRequest, 1),
		result: func(n int32) (*pipeline.Outcome, error) {
			if n == 1 {
				return &pipeline.Outcome{RunID: "r1", Kind: pipeline.OutcomeCompileFailure, Err: errors.New("boom")}, nil
			}
			return &pipeline.Outcome{RunID: "r2", Kind: pipeline.OutcomeSuccess}, nil
		},
	}
	d, err := New(testConfig(), runner, nil)
	require.NoError(t, err)

	resp := getHealth(t, d.Handler())
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Nil(t, resp.LastRun)

	d.tick(context.Background())
	req := <-runner.reqs
	assert.Equal(t, "https://example.com/css.git", req.SourceURL)
	assert.Equal(t, ScheduledReason, req.Reason)

	resp = getHealth(t, d.Handler())
	assert.Equal(t, HealthStatusDegraded, resp.Status)
	require.NotNil(t, resp.LastRun)
	assert.Equal(t, "r1", resp.LastRun.RunID)
	assert.Equal(t, "compile_failure", resp.LastRun.Outcome)
	assert.Equal(t, "boom", resp.LastRun.Error)

	d.tick(context.Background())
	resp = getHealth(t, d.Handler())
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Equal(t, int64(2), resp.Runs)
}

func TestDaemon_TickIgnoresRunInProgress(t *testing.T) {
	runner := &fakeRunner{result: func(int32) (*pipeline.Outcome, error) { return nil, pipeline.ErrRunInProgress }}
	d, err := New(testConfig(), runner, nil)
	require.NoError(t, err)

	d.tick(context.Background())
	resp := getHealth(t, d.Handler())
	assert.Equal(t, int64(0), resp.Runs)
	assert.Nil(t, resp.LastRun)
}

func TestDaemon_RunServesMetricsAndStops(t *testing.T) {
	reg, recorder := NewRegistry()
	recorder.IncRunOutcome("success")

	runner := &fakeRunner{result: func(int32) (*pipeline.Outcome, error) {
		return &pipeline.Outcome{RunID: "r", Kind: pipeline.OutcomeSuccess}, nil
	}}
	d, err := New(testConfig(), runner, reg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return d.Addr() != "" && runner.calls.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)

	res, err := http.Get("http://" + d.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	_ = res.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `csspublisher_run_outcomes_total{outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestDaemon_SkipsUnchangedSource(t *testing.T) {
	heads := &fakeHeads{head: "c1"}
	runner := &fakeRunner{result: func(int32) (*pipeline.Outcome, error) {
		return &pipeline.Outcome{RunID: "r", Kind: pipeline.OutcomePublishRejected, Commit: heads.head, Err: errors.New("BAD_CSS")}, nil
	}}
	d, err := New(testConfig(), runner, nil)
	require.NoError(t, err)
	d.WithHeadResolver(heads)

	for range 3 {
		d.tick(context.Background())
	}
	assert.Equal(t, int32(1), runner.calls.Load(), "a rejected commit is published and reported once")
	assert.Equal(t, int64(2), getHealth(t, d.Handler()).Skipped)

	heads.set("c2")
	d.tick(context.Background())
	d.tick(context.Background())
	assert.Equal(t, int32(2), runner.calls.Load())
	assert.Equal(t, "c2", getHealth(t, d.Handler()).LastRun.Commit)
}

func TestDaemon_RetriesUnsettledOutcomes(t *testing.T) {
	cases := map[string]*pipeline.Outcome{
		"asset failure":     {Kind: pipeline.OutcomeAssetUploadFailure, Commit: "c1", Err: errors.New("413")},
		"canceled":          {Kind: pipeline.OutcomeCanceled, Commit: "c1", Err: context.Canceled},
		"transport failure": {Kind: pipeline.OutcomeTransportFailure, Err: errors.New("unreachable")},
	}
	for name, out := range cases {
		t.Run(name, func(t *testing.T) {
			runner := &fakeRunner{result: func(int32) (*pipeline.Outcome, error) { return out, nil }}
			d, err := New(testConfig(), runner, nil)
			require.NoError(t, err)
			d.WithHeadResolver(&fakeHeads{head: "c1"})

			d.tick(context.Background())
			d.tick(context.Background())
			assert.Equal(t, int32(2), runner.calls.Load())
		})
	}
}

func TestDaemon_RunsWhenHeadLookupFails(t *testing.T) {
	runner := &fakeRunner{result: func(int32) (*pipeline.Outcome, error) {
		return &pipeline.Outcome{Kind: pipeline.OutcomeTransportFailure, Err: errors.New("unreachable")}, nil
	}}
	d, err := New(testConfig(), runner, nil)
	require.NoError(t, err)
	d.WithHeadResolver(&fakeHeads{err: errors.New("dial tcp: connection refused")})

	d.tick(context.Background())
	assert.Equal(t, int32(1), runner.calls.Load())
}
