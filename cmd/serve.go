package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for batch analysis and corrections",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return startServer(ctx, buildRouter(env), resolvePort(servePort, cfg.Server.Port))
	},
}

func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

func buildRouter(env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/batches/{batchID}", func(api chi.Router) {

		api.Post("/analyze", func(w http.ResponseWriter, r *http.Request) {
			batchID := chi.URLParam(r, "batchID")

			result, err := env.Pipeline.AnalyzeBatch(r.Context(), batchID)
			if err != nil {
				zap.L().Error("batch analysis failed",
					zap.String("batch_id", batchID),
					zap.Error(err),
				)
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
				return
			}

			writeJSON(w, http.StatusOK, result)
		})

		api.Get("/blueprint", func(w http.ResponseWriter, r *http.Request) {
			batchID := chi.URLParam(r, "batchID")

			bp, err := env.Store.LatestBlueprint(r.Context(), batchID)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			if bp == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no blueprint for batch"})
				return
			}

			writeJSON(w, http.StatusOK, bp)
		})

		api.Put("/overrides", func(w http.ResponseWriter, r *http.Request) {
			batchID := chi.URLParam(r, "batchID")

			var overrides map[string]any
			if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if len(overrides) == 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no overrides given"})
				return
			}

			result, err := env.Pipeline.Correct(r.Context(), batchID, overrides)
			if err != nil {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
				return
			}

			writeJSON(w, http.StatusOK, result)
		})
	})

	return r
}

// startServer serves until ctx is cancelled, then drains in-flight requests
// under a fresh deadline. The signal context is already dead at shutdown
// time, so it cannot bound the drain itself.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	if err := <-shutdownErr; err != nil {
		return eris.Wrap(err, "server shutdown")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
