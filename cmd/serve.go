package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winnerlabs/leadminer/internal/extract"
	"github.com/winnerlabs/leadminer/internal/model"
	"github.com/winnerlabs/leadminer/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for extraction requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: apiRouter(ctx, env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiRouter builds the chi router. runCtx outlives individual requests so
// accepted extractions keep running after the triggering request returns.
func apiRouter(runCtx context.Context, env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/extract", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Niche    string   `json:"niche"`
			Location string   `json:"location"`
			Deep     bool     `json:"deep"`
			Parallel bool     `json:"parallel"`
			Lat      *float64 `json:"lat,omitempty"`
			Lng      *float64 `json:"lng,omitempty"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.Niche == "" || body.Location == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "niche and location are required"})
			return
		}

		query := model.Query{Niche: body.Niche, Location: body.Location, Lat: body.Lat, Lng: body.Lng}
		strategies := extract.Strategies(body.Deep)

		run, err := env.Store.CreateRun(req.Context(), query, strategies)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "create run failed"})
			return
		}

		// Run extraction detached from the request.
		go runExtraction(runCtx, env, run.ID, query, strategies, body.Parallel)

		writeJSON(w, http.StatusAccepted, map[string]string{"run_id": run.ID, "status": string(run.Status)})
	})

	r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		runs, err := env.Store.ListRuns(req.Context(), store.RunFilter{
			Status: model.RunStatus(req.URL.Query().Get("status")),
			Niche:  req.URL.Query().Get("niche"),
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/api/runs/{runID}", func(w http.ResponseWriter, req *http.Request) {
		runID := chi.URLParam(req, "runID")
		run, err := env.Store.GetRun(req.Context(), runID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		leads, err := env.Store.GetLeads(req.Context(), runID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get leads failed"})
			return
		}
		if leads == nil {
			leads = []model.Lead{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"run": run, "leads": leads})
	})

	return r
}

func runExtraction(ctx context.Context, env *pipelineEnv, runID string, query model.Query, strategies []string, parallel bool) {
	var result *model.Result
	var err error
	if parallel {
		result, err = env.Runner.RunParallel(ctx, query, strategies)
	} else {
		result, err = env.Runner.RunSequential(ctx, query, strategies, nil)
	}
	if err != nil {
		zap.L().Error("api extraction aborted", zap.String("run_id", runID), zap.Error(err))
		_ = env.Store.CompleteRun(ctx, runID, model.RunStatusFailed, 0)
		return
	}

	if err := env.Store.SaveLeads(ctx, runID, result.Leads); err != nil {
		zap.L().Error("api save leads failed", zap.String("run_id", runID), zap.Error(err))
		_ = env.Store.CompleteRun(ctx, runID, model.RunStatusFailed, 0)
		return
	}
	if err := env.Store.CompleteRun(ctx, runID, runStatus(result, strategies), len(result.Leads)); err != nil {
		zap.L().Error("api complete run failed", zap.String("run_id", runID), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
