//go:build integration

package test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/metrics"
	"github.com/user/storeops/internal/pipeline"
	"github.com/user/storeops/internal/server"
	"github.com/user/storeops/internal/state"
	"github.com/user/storeops/internal/tools"
	"github.com/user/storeops/internal/types"
	"github.com/user/storeops/internal/workflow"
)

type stack struct {
	srv  *httptest.Server
	sup  *gateway.Supervisor
	repo *state.Repository
}

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store, err := state.OpenSQLStore(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	repo := state.NewRepository(store, state.DefaultTables())
	if err := state.Seed(ctx, repo); err != nil {
		t.Fatal(err)
	}

	collector := metrics.NewCollector("storeops")
	reg := tools.NewRegistry()
	tools.NewCatalogue(repo).Register(reg)
	reg.SetObserver(collector)
	exec := pipeline.New(pipeline.DefaultSteps(), reg)
	exec.SetObserver(collector)

	sup := gateway.NewSupervisor(exec, gateway.Options{MaxConcurrent: 2, BusCapacity: 4, Observer: collector})
	t.Cleanup(func() {
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		if err := sup.Shutdown(sctx); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})

	srv := httptest.NewServer(server.New(ctx, server.Deps{
		Supervisor: sup,
		Repo:       repo,
		Tools:      reg,
		Engine:     workflow.NewLocalEngine("StoreOperationsWorkflow", sup),
		Metrics:    collector,
	}, server.Options{Heartbeat: time.Second}))
	t.Cleanup(srv.Close)
	return &stack{srv: srv, sup: sup, repo: repo}
}

// streamEvents reads SSE frames and returns the data lines, stopping after
// limit frames when limit > 0.
func streamEvents(t *testing.T, url string, limit int) []string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Error(err)
		return nil
	}
	defer resp.Body.Close()

	var data []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if line, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
			data = append(data, line)
			if limit > 0 && len(data) == limit {
				return data
			}
		}
	}
	return data
}

func TestConcurrentStreamsAndDisconnects(t *testing.T) {
	s := newStack(t)

	var wg sync.WaitGroup
	results := make([][]string, 6)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limit := 0
			if i%2 == 1 {
				limit = 2
			}
			results[i] = streamEvents(t, s.srv.URL+"/stream-crew", limit)
		}()
	}
	wg.Wait()

	for i, frames := range results {
		if i%2 == 1 {
			if len(frames) != 2 {
				t.Errorf("client %d: expected 2 frames before disconnect, got %d", i, len(frames))
			}
			continue
		}
		if len(frames) < 3 {
			t.Fatalf("client %d: expected a full stream, got %d frames", i, len(frames))
		}
		if !strings.Contains(frames[0], `"type":"start"`) {
			t.Errorf("client %d: first frame %q", i, frames[0])
		}
		if !strings.Contains(frames[len(frames)-1], `"type":"done"`) {
			t.Errorf("client %d: last frame %q", i, frames[len(frames)-1])
		}
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		runs := s.sup.List()
		done := len(runs) == len(results)
		for _, r := range runs {
			done = done && r.Status == gateway.RunStatusSucceeded
		}
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("runs did not all succeed: %+v", runs)
		}
		time.Sleep(50 * time.Millisecond)
	}

	orders, err := s.repo.ListOrders(context.Background(), types.OrderStatusPending)
	if err != nil {
		t.Fatal(err)
	}
	// One seeded order plus one restock order for SKU-001 per run.
	if want := 1 + len(results); len(orders) != want {
		t.Errorf("expected %d pending orders, got %d", want, len(orders))
	}
}

func TestRemoteWorkflowAgainstServer(t *testing.T) {
	s := newStack(t)
	engine := workflow.NewRemoteEngine(s.srv.URL, 5*time.Second).WithRetry(workflow.DefaultRetryPolicy())
	ctx := context.Background()

	handle, err := engine.Start(ctx, map[string]string{"store_id": "store-002"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(handle, "StoreOperationsWorkflow:") {
		t.Fatalf("unexpected handle %q", handle)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		exec, err := engine.Describe(ctx, handle)
		if err != nil {
			t.Fatal(err)
		}
		if exec.Status == workflow.StatusSucceeded {
			if !strings.Contains(exec.Output, pipeline.RoleLogistics) {
				t.Errorf("output missing logistics section: %q", exec.Output)
			}
			break
		}
		if exec.Status == workflow.StatusFailed {
			t.Fatalf("execution failed: %s", exec.Error)
		}
		if time.Now().After(deadline) {
			t.Fatal("execution did not finish")
		}
		time.Sleep(50 * time.Millisecond)
	}

	if _, err := engine.Describe(ctx, "StoreOperationsWorkflow:missing"); err == nil {
		t.Error("expected an error for an unknown execution")
	}
}
