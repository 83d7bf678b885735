package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/storeops/internal/config"
	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/stream"
	"github.com/user/storeops/internal/types"
)

type execFunc func(ctx context.Context, input map[string]string, bus *stream.Bus) (string, error)

func (f execFunc) Run(ctx context.Context, input map[string]string, bus *stream.Bus) (string, error) {
	return f(ctx, input, bus)
}

func newSupervisor(t *testing.T, fn execFunc) *gateway.Supervisor {
	t.Helper()
	s := gateway.NewSupervisor(fn, gateway.Options{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestLocalEngineLifecycle(t *testing.T) {
	release := make(chan struct{})
	sup := newSupervisor(t, func(_ context.Context, input map[string]string, bus *stream.Bus) (string, error) {
		for range 500 {
			_ = bus.Put(stream.Log("system", "noise", time.Now()))
		}
		<-release
		return "done for " + input["store_id"], nil
	})
	engine := NewLocalEngine("StoreOperationsWorkflow", sup)

	handle, err := engine.Start(context.Background(), map[string]string{"store_id": "store-007"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(handle, "StoreOperationsWorkflow:"))

	exec, err := engine.Describe(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, exec.Status)

	close(release)
	require.Eventually(t, func() bool {
		exec, err = engine.Describe(context.Background(), handle)
		return err == nil && exec.Status == StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "done for store-007", exec.Output)
	assert.NotNil(t, exec.StopDate)
}

func TestLocalEngineFailedRun(t *testing.T) {
	sup := newSupervisor(t, func(context.Context, map[string]string, *stream.Bus) (string, error) {
		return "", errors.New("step inventory failed: store offline")
	})
	engine := NewLocalEngine("SM", sup)

	handle, err := engine.Start(context.Background(), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		exec, err := engine.Describe(context.Background(), handle)
		return err == nil && exec.Status == StatusFailed && strings.Contains(exec.Error, "store offline")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLocalEngineUnknownHandle(t *testing.T) {
	engine := NewLocalEngine("SM", newSupervisor(t, nil))

	for _, handle := range []string{"garbage", "Other:" + string(types.NewRunID()), "SM:" + string(types.NewRunID())} {
		_, err := engine.Describe(context.Background(), handle)
		assert.ErrorIs(t, err, ErrExecutionNotFound, handle)
	}
}

func TestLocalEngineAfterShutdown(t *testing.T) {
	sup := gateway.NewSupervisor(execFunc(func(context.Context, map[string]string, *stream.Bus) (string, error) {
		return "", nil
	}), gateway.Options{})
	require.NoError(t, sup.Shutdown(context.Background()))

	_, err := NewLocalEngine("SM", sup).Start(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDisabledEngine(t *testing.T) {
	_, err := Disabled{}.Start(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = Disabled{}.Describe(context.Background(), "x:y")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewSelectsMode(t *testing.T) {
	sup := newSupervisor(t, nil)

	e, err := New(config.WorkflowConfig{Mode: "local", StateMachine: "SM"}, sup)
	require.NoError(t, err)
	assert.IsType(t, &LocalEngine{}, e)

	e, err = New(config.WorkflowConfig{Mode: "local"}, sup)
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, e)

	e, err = New(config.WorkflowConfig{Mode: "remote", URL: "http://localhost:1"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RemoteEngine{}, e)

	_, err = New(config.WorkflowConfig{Mode: "remote"}, nil)
	assert.Error(t, err)

	_, err = New(config.WorkflowConfig{Mode: "step-functions"}, nil)
	assert.Error(t, err)
}

func TestRemoteEngine(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/workflow/start":
			var input map[string]string
			_ = json.NewDecoder(r.Body).Decode(&input)
			_ = json.NewEncoder(w).Encode(map[string]any{"execution_arn": "SM:abc", "input": input})
		case r.Method == http.MethodGet && r.URL.Path == "/workflow/status":
			if r.URL.Query().Get("execution_arn") != "SM:abc" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"execution not found"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(Execution{Handle: "SM:abc", Status: StatusSucceeded, Output: "all good"})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	engine := NewRemoteEngine(srv.URL+"/", time.Second).WithRetry(fastPolicy(3))

	handle, err := engine.Start(context.Background(), map[string]string{"store_id": "store-001"})
	require.NoError(t, err)
	assert.Equal(t, "SM:abc", handle)

	exec, err := engine.Describe(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, exec.Status)
	assert.Equal(t, "all good", exec.Output)

	before := calls.Load()
	_, err = engine.Describe(context.Background(), "SM:missing")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
	assert.Equal(t, before+1, calls.Load(), "not-found must not be retried")
}

func TestRemoteEngineUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Could not start workflow. Is the state machine deployed?"}`))
	}))
	defer srv.Close()

	engine := NewRemoteEngine(srv.URL, time.Second).WithRetry(fastPolicy(3))
	_, err := engine.Start(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "state machine deployed")
	assert.Equal(t, int32(3), calls.Load())

	srv.Close()
	_, err = engine.Start(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
