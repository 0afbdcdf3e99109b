package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

type statsResponse struct {
	Rooms  int    `json:"rooms"`
	Uptime string `json:"uptime"`
}

type playerStatsResponse struct {
	ID         string `json:"id"`
	Rating     int    `json:"rating"`
	WinStreak  int    `json:"winStreak"`
	BestStreak int    `json:"bestStreak"`
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[backend] .env not loaded: %v", err)
	}
	configStore.Update(LoadConfigFromEnv())

	var store interface {
		MatchStore
		Accounts
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pg, err := NewPgStore(dsn)
		if err != nil {
			log.Fatalf("[backend] database: %v", err)
		}
		if err := pg.Ping(); err != nil {
			log.Fatalf("[backend] database ping: %v", err)
		}
		defer pg.Close()
		store = pg
		log.Println("[backend] using postgres match store")
	} else {
		store = NewMemoryStore()
		log.Println("[backend] no DATABASE_URL, using in-memory match store")
	}

	recorder := NewMatchRecorder(store)
	registry := NewRegistry(recorder, store)
	startedAt := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go registry.RunSweeper(ctx.Done(), time.Duration(GetConfig().DeadlineSweepMs)*time.Millisecond)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statsResponse{
			Rooms:  registry.RoomCount(),
			Uptime: time.Since(startedAt).Round(time.Second).String(),
		})
	})

	r.Get("/api/players/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		stats, err := store.PlayerStats(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, playerStatsResponse{
			ID:         id,
			Rating:     stats.Rating,
			WinStreak:  stats.WinStreak,
			BestStreak: stats.BestStreak,
		})
	})

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(registry, store, w, r)
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Printf("backend listening on %s", addr)
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Printf("[backend] shutdown signal received: %v", sigCtx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
			log.Printf("[backend] server error: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[backend] graceful shutdown failed: %v", err)
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Printf("[backend] forced close failed: %v", closeErr)
		}
	}

	cancel()
	if runErr != nil {
		log.Printf("[backend] exiting after server error: %v", runErr)
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[backend] write response: %v", err)
	}
}
