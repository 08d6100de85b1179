package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	stashhttp "github.com/aretw0/stash/pkg/adapters/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// demoResponse is what the demo endpoints report about the current session.
type demoResponse struct {
	ID     string `json:"id"`
	Visits any    `json:"visits"`
	Flash  any    `json:"flash,omitempty"`
}

// NewRouter builds the demo application: session-backed endpoints plus
// /healthz and /metrics.
func NewRouter(rt *Runtime, opts ...stashhttp.Option) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{}))

	opts = append([]stashhttp.Option{stashhttp.WithLogger(rt.Logger)}, opts...)
	r.Group(func(r chi.Router) {
		r.Use(stashhttp.Middleware(rt.Manager, opts...))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			s := stashhttp.FromContext(r.Context())
			visits, err := s.Increment("visits", 1)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, demoResponse{ID: s.ID(), Visits: visits, Flash: s.Get("status", nil)})
		})

		r.Post("/flash", func(w http.ResponseWriter, r *http.Request) {
			s := stashhttp.FromContext(r.Context())
			s.Flash("status", r.FormValue("message"))
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})

		r.Post("/regenerate", func(w http.ResponseWriter, r *http.Request) {
			s := stashhttp.FromContext(r.Context())
			if _, err := s.Regenerate(r.Context(), true); err != nil {
				rt.Logger.Error("failed to regenerate session", "err", err)
				http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, demoResponse{ID: s.ID(), Visits: s.Get("visits", nil)})
		})

		r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
			s := stashhttp.FromContext(r.Context())
			if err := s.Invalidate(r.Context()); err != nil {
				rt.Logger.Error("failed to invalidate session", "err", err)
				http.Error(w, "Session unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Serve runs the demo application on addr with the scheduled collector until
// ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, rt *Runtime, addr string, opts ...stashhttp.Option) error {
	collector := rt.Manager.Collector()
	if err := collector.Start(); err != nil {
		return fmt.Errorf("failed to schedule garbage collection: %w", err)
	}
	defer collector.Stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(rt, opts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		rt.Logger.Info("listening", "addr", addr, "session", rt.Manager.Name(), "backend", rt.Manager.Config().Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		rt.Logger.Info("server stopped")
		return nil
	}
}
