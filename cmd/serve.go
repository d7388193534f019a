package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/staff-finder/internal/batch"
	"github.com/sells-group/staff-finder/internal/model"
	"github.com/sells-group/staff-finder/internal/resilience"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolver over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{
			resolver:    env.Resolver,
			breakers:    env.Breakers,
			maxBatch:    cfg.Server.MaxBatch,
			concurrency: cfg.Batch.Concurrency,
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.routes(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
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

// apiServer exposes the resolver over HTTP.
type apiServer struct {
	resolver    batch.Resolver
	breakers    *resilience.ServiceBreakers // may be nil
	maxBatch    int
	concurrency int
}

func (s *apiServer) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Post("/batch", s.handleBatch)
	})
	return r
}

// schoolRequest is the JSON shape of one school in API requests.
type schoolRequest struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	State    string `json:"state"`
	District string `json:"district"`
	URL      string `json:"staff_directory_url"`
}

func (r schoolRequest) record(row int) model.SchoolRecord {
	return model.SchoolRecord{
		Row:         row,
		Name:        strings.TrimSpace(r.Name),
		City:        strings.TrimSpace(r.City),
		State:       strings.TrimSpace(r.State),
		District:    strings.TrimSpace(r.District),
		ExistingURL: strings.TrimSpace(r.URL),
	}
}

// resultResponse is the JSON shape of one resolved school.
type resultResponse struct {
	Row        int           `json:"row"`
	School     string        `json:"school"`
	StaffURL   string        `json:"staff_url"`
	Confidence string        `json:"confidence"`
	Reasoning  string        `json:"reasoning"`
	Outcome    model.Outcome `json:"outcome"`
}

func toResultResponse(r model.Result) resultResponse {
	return resultResponse{
		Row:        r.School.Row,
		School:     r.School.Name,
		StaffURL:   r.StaffURL,
		Confidence: r.OutputConfidence(),
		Reasoning:  r.Reasoning,
		Outcome:    r.Outcome,
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	breakers := map[string]string{}
	if s.breakers != nil {
		for name, state := range s.breakers.States() {
			breakers[name] = state.String()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "breakers": breakers})
}

func (s *apiServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req schoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	res := s.resolver.Resolve(r.Context(), req.record(1))
	writeJSON(w, http.StatusOK, toResultResponse(res))
}

// handleBatch resolves a JSON array of schools and answers with results in
// the same order.
func (s *apiServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req []schoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "request must list at least one school")
		return
	}
	if s.maxBatch > 0 && len(req) > s.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d schools per request", s.maxBatch))
		return
	}

	schools := make([]model.SchoolRecord, len(req))
	for i, sr := range req {
		schools[i] = sr.record(i + 1)
	}

	runner := batch.New(s.resolver, batch.Options{Concurrency: s.concurrency})
	results, _, err := runner.Run(r.Context(), schools)
	if err != nil {
		zap.L().Warn("batch request ended early", zap.Error(err))
	}

	out := make([]resultResponse, len(results))
	for i, res := range results {
		out[i] = toResultResponse(res)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
