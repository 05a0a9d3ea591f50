// Package httpapi serves a read-only view of recorded runs together with
// health probes and Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mtexp/internal/runstore"
	"mtexp/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListRuns() ([]types.RunManifest, error)
	GetRun(name string) (types.RunManifest, error)
	Ready() bool
}

// Swagger UI location when built with -tags swagger.
const (
	swaggerRoute   = "/swagger/*"
	swaggerDocPath = "/swagger/doc.json"
)

// NewMux builds the router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	r.Use(MetricsMiddleware)
	r.Use(requestLogger)

	r.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
		runs, err := svc.ListRuns()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := types.RunsResponse{Runs: make([]types.RunSummary, 0, len(runs))}
		for _, m := range runs {
			resp.Runs = append(resp.Runs, m.Summary())
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/runs/{name}", func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.GetRun(chi.URLParam(r, "name"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("training"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	if ui := swaggerUI(); ui != nil {
		r.Get(swaggerRoute, ui)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

// StoreService exposes a run store through Service. Ready reports the value
// of the ready func, or true when none is set.
type StoreService struct {
	Store *runstore.Store
	ready func() bool
}

// NewStoreService wraps store. ready may be nil.
func NewStoreService(store *runstore.Store, ready func() bool) *StoreService {
	return &StoreService{Store: store, ready: ready}
}

// ListRuns returns manifests, most recently started first.
func (s *StoreService) ListRuns() ([]types.RunManifest, error) {
	runs, err := s.Store.List()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	return runs, nil
}

// GetRun loads one manifest by run name.
func (s *StoreService) GetRun(name string) (types.RunManifest, error) { return s.Store.Load(name) }

// Ready implements Service.
func (s *StoreService) Ready() bool {
	if s.ready == nil {
		return true
	}
	return s.ready()
}
