// Command readapi runs the reference read API over seeded demo data.
// Production deployments embed the pkg/reader facade directly and plug in
// their own store.Collection implementations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/adrian-moloca/clinicache/internal/testutil"
	"github.com/adrian-moloca/clinicache/pkg/cachestore"
	"github.com/adrian-moloca/clinicache/pkg/config"
	"github.com/adrian-moloca/clinicache/pkg/entity"
	"github.com/adrian-moloca/clinicache/pkg/loader"
	"github.com/adrian-moloca/clinicache/pkg/logging"
	"github.com/adrian-moloca/clinicache/pkg/pagination"
	"github.com/adrian-moloca/clinicache/pkg/readcache"
	"github.com/adrian-moloca/clinicache/pkg/reader"
	"github.com/adrian-moloca/clinicache/pkg/stats"
	"github.com/adrian-moloca/clinicache/pkg/store"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{Level: logging.LogLevel(cfg.LogLevel), Pretty: cfg.LogPretty})
	logger.Info().Msgf("Configuration loaded:%s", cfg)

	backend := newBackend(cfg, logger)
	defer backend.Close()

	cache := readcache.New(backend, readcache.TTLConfig{
		Entity:  time.Duration(cfg.EntityTTLSeconds) * time.Second,
		List:    time.Duration(cfg.ListTTLSeconds) * time.Second,
		Stats:   time.Duration(cfg.StatsTTLSeconds) * time.Second,
		Default: 60 * time.Second,
	})
	tracker := stats.NewTracker(backend, logging.NewLogger("stats"))

	readerCfg := reader.Config{
		Cache:   cache,
		Tracker: tracker,
		Pagination: pagination.Config{
			MaxLimit:        cfg.MaxPageLimit,
			CountEstimation: cfg.CountEstimationEnabled,
			EstimateMinSize: cfg.CountEstimationMinSize,
		},
		Loader: loader.Config{Delay: cfg.BatchDelay(), MaxBatchSize: cfg.MaxBatchSize},
	}

	orgs, err := reader.New(entity.ResourceOrganization, testutil.NewMemCollection(testutil.Organizations(250)...), readerCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create organization reader")
	}
	clinics, err := reader.New(entity.ResourceClinic, testutil.NewMemCollection(testutil.Clinics(40, "org-000")...), readerCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create clinic reader")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler(cache, tracker))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/organizations", listHandler(orgs, nil))
	mux.HandleFunc("GET /api/organizations/{id}", getHandler(orgs))
	mux.HandleFunc("GET /api/organizations/{id}/clinics", func(w http.ResponseWriter, r *http.Request) {
		filter := store.Filter{"organizationId": r.PathValue("id")}
		listHandler(clinics, filter)(w, r)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Read API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown incomplete")
	}
}

// newBackend connects to Redis, falling back to the in-process backend
// when Redis is unreachable. The cache is a latency optimization, so a
// missing Redis degrades the deployment instead of blocking startup.
func newBackend(cfg *config.Config, logger zerolog.Logger) cachestore.Backend {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, using in-process cache backend")
		rdb.Close()
		return cachestore.NewMemoryBackend(0)
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	return cachestore.NewRedisBackend(rdb)
}

type healthResponse struct {
	Status    string            `json:"status"`
	LatencyMs int64             `json:"latency_ms"`
	Cache     *stats.CacheStats `json:"cache,omitempty"`
}

func healthHandler(cache *readcache.Cache, tracker *stats.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := cache.HealthCheck(r.Context())
		resp := healthResponse{Status: h.Status, LatencyMs: h.LatencyMs}
		if snap, err := tracker.Snapshot(r.Context()); err == nil {
			resp.Cache = snap
		}
		status := http.StatusOK
		if h.Status != readcache.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

// listHandler serves a list endpoint in offset or cursor mode, chosen by
// the presence of a cursor query parameter. baseFilter carries path-bound
// conditions and wins over query parameters.
func listHandler[T store.Record](rd *reader.Reader[T], baseFilter store.Filter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := store.Filter{}
		if name := q.Get("name"); name != "" {
			filter["name"] = name
		}
		if active := q.Get("active"); active != "" {
			filter["active"] = active == "true"
		}
		for k, v := range baseFilter {
			filter[k] = v
		}

		limit := queryInt(q.Get("$limit"), 20)
		fields := splitFields(q.Get("$select"))

		if cursor, ok := q["$cursor"]; ok {
			token := ""
			if len(cursor) > 0 {
				token = cursor[0]
			}
			page, err := rd.ListCursor(r.Context(), filter, limit, token, fields)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, page)
			return
		}

		page, err := rd.ListOffset(r.Context(), filter, limit, queryInt(q.Get("$offset"), 0), fields)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func getHandler[T store.Record](rd *reader.Reader[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, found, err := rd.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var re *reader.ReadError
	if errors.As(err, &re) && re.Class == reader.ErrorClassValidation {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func splitFields(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
