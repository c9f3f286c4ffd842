package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Start - serves the scoring REST surface, including the polling
// fallback used by viewers whose push channel is down.
func Start(logger *slog.Logger, matchManager matchManager, port string) error {
	mux := NewRouter(NewHandlers(logger, matchManager))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// NewRouter - binds every handler to its route.
func NewRouter(handlers *Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", handlers.Ping)

	mux.HandleFunc("POST /matches", handlers.CreateMatch)
	mux.HandleFunc("GET /matches/{id}/live", handlers.LiveSnapshot)
	mux.HandleFunc("POST /matches/{id}/start", handlers.StartMatch)
	mux.HandleFunc("POST /matches/{id}/pause", handlers.PauseMatch)
	mux.HandleFunc("POST /matches/{id}/resume", handlers.ResumeMatch)
	mux.HandleFunc("POST /matches/{id}/cancel", handlers.CancelMatch)
	mux.HandleFunc("POST /matches/{id}/point", handlers.AddPoint)
	mux.HandleFunc("POST /matches/{id}/undo", handlers.Undo)

	return mux
}
