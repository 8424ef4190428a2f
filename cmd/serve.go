package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/miss"
	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/resolver"
)

var servePort int

// maxResolveNames bounds a single POST /resolve request.
const maxResolveNames = 100

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP resolution API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initResolver(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type resolveRequest struct {
	Name      string   `json:"name"`
	Names     []string `json:"names"`
	Market    string   `json:"market"`
	BatchSize int      `json:"batch_size"`
}

func (r resolveRequest) all() []string {
	out := make([]string, 0, len(r.Names)+1)
	if r.Name != "" {
		out = append(out, r.Name)
	}
	for _, n := range r.Names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// newRouter mounts the API on a chi router.
func newRouter(env *resolverEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(env.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/resolve", func(w http.ResponseWriter, req *http.Request) {
		var body resolveRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		batch := body.all()
		switch {
		case len(batch) == 0:
			writeError(w, http.StatusBadRequest, "name or names is required")
			return
		case len(batch) > maxResolveNames:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d names per request", maxResolveNames))
			return
		}

		ctx := req.Context()
		var results []model.BiographicalResult
		if body.Market != "" {
			mc := &resolver.MarketContext{Title: body.Market}
			for _, name := range batch {
				results = append(results, env.Resolver.Resolve(ctx, name, mc))
			}
		} else {
			results = env.Resolver.ResolveAll(ctx, batch, body.BatchSize)
		}

		zap.L().Info("resolve request complete",
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.Int("names", len(batch)),
		)
		writeJSON(w, http.StatusOK, map[string]any{
			"results": results,
			"summary": resolver.Summarize(results),
		})
	})

	r.Get("/misses", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		opts := miss.ListOptions{
			Reason:         model.MissReason(q.Get("reason")),
			EntityType:     model.EntityType(q.Get("type")),
			UnresolvedOnly: q.Get("unresolved") == "true",
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			opts.Limit = n
		}

		entries, err := env.Misses.List(req.Context(), opts)
		if err != nil {
			zap.L().Error("list misses failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list misses failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"misses": entries})
	})

	r.Get("/registry/{name}", func(w http.ResponseWriter, req *http.Request) {
		entry, err := env.Registry.Entry(req.Context(), chi.URLParam(req, "name"))
		if err != nil {
			zap.L().Error("registry lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "registry lookup failed")
			return
		}
		if entry == nil {
			writeError(w, http.StatusNotFound, "not in registry")
			return
		}
		writeJSON(w, http.StatusOK, entry)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
