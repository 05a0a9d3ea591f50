package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mtexp/internal/runstore"
	"mtexp/pkg/types"
)

type fakeService struct {
	runs    []types.RunManifest
	listErr error
	ready   bool
}

func (f *fakeService) ListRuns() ([]types.RunManifest, error) { return f.runs, f.listErr }

func (f *fakeService) GetRun(name string) (types.RunManifest, error) {
	for _, m := range f.runs {
		if m.Name == name {
			return m, nil
		}
	}
	store, _ := runstore.Open(".")
	return store.Load("__missing__" + name)
}

func (f *fakeService) Ready() bool { return f.ready }

type teapot struct{}

func (teapot) Error() string   { return "teapot" }
func (teapot) StatusCode() int { return http.StatusTeapot }

func TestRunsEndpoint(t *testing.T) {
	done := time.Unix(1700000000, 0)
	svc := &fakeService{ready: true, runs: []types.RunManifest{
		{Name: "sts", ID: "a", Status: types.RunSucceeded, TrainType: "sequential", FinishedAt: &done,
			Checkpoint: types.Artifact{Path: "models/sts_full-model-10-1e-05-multitask.ckpt"}},
		{Name: "pcgrad", ID: "b", Status: types.RunRunning, TrainType: "pcgrad"},
	}}
	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/runs")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	var body types.RunsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Runs) != 2 || body.Runs[0].FinishedUnix != 1700000000 || body.Runs[1].FinishedUnix != 0 {
		t.Fatalf("unexpected runs: %+v", body.Runs)
	}
	if body.Runs[0].Checkpoint != "models/sts_full-model-10-1e-05-multitask.ckpt" {
		t.Fatalf("checkpoint path not projected: %+v", body.Runs[0])
	}
}

func TestRunByName(t *testing.T) {
	svc := &fakeService{ready: true, runs: []types.RunManifest{{Name: "sts", ID: "a", Status: types.RunSucceeded}}}
	h := NewMux(svc)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/sts", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"id":"a"`) {
		t.Fatalf("got %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var er types.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &er); err != nil || er.Code != 404 || er.Error == "" {
		t.Fatalf("error payload: %s", rr.Body.String())
	}
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{teapot{}, http.StatusTeapot},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		h := NewMux(&fakeService{listErr: c.err})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs", nil))
		if rr.Code != c.want || rr.Header().Get("Content-Type") != "application/json" {
			t.Fatalf("%v: got %d", c.err, rr.Code)
		}
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := &fakeService{}
	h := NewMux(svc)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rr.Code, rr.Body.String())
	}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz while not ready: %d", rr.Code)
	}
	svc.ready = true
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ready" {
		t.Fatalf("readyz: %d %q", rr.Code, rr.Body.String())
	}
}

func TestStoreService(t *testing.T) {
	store, err := runstore.Open(filepath.Join(t.TempDir(), ".mtexp"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t0 := time.Now().UTC()
	for i, name := range []string{"old", "new"} {
		if err := store.Save(types.RunManifest{Name: name, ID: name, Status: types.RunSucceeded, StartedAt: t0.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	svc := NewStoreService(store, nil)
	runs, err := svc.ListRuns()
	if err != nil || len(runs) != 2 || runs[0].Name != "new" {
		t.Fatalf("list: %+v %v", runs, err)
	}
	if !svc.Ready() {
		t.Fatalf("nil ready func should report ready")
	}
	h := NewMux(svc)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from store, got %d", rr.Code)
	}
	busy := NewStoreService(store, func() bool { return false })
	if busy.Ready() {
		t.Fatalf("ready func ignored")
	}
}

func TestCORSPreflight(t *testing.T) {
	SetCORSOptions(true, []string{"https://example.com"}, nil, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)
	h := NewMux(&fakeService{ready: true})

	req := httptest.NewRequest(http.MethodOptions, "/runs", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("allow origin %q", got)
	}
	if len(corsAllowedMethods) != 2 {
		t.Fatalf("default methods not applied: %v", corsAllowedMethods)
	}
}
