package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"mazebound/server/config"
	"mazebound/server/handlers"
	"mazebound/server/models"
	"mazebound/server/persistence"
	"mazebound/server/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin during development.
		// In production, restrict this to your client's domain.
		return true
	},
}

// devIdentity trusts userId/username query parameters. Real deployments sit
// behind an authenticating proxy that supplies a verified identity; this
// server only consumes the result.
type devIdentity struct{}

func (devIdentity) ResolveUser(r *http.Request) (*models.User, error) {
	id := r.URL.Query().Get("userId")
	if id == "" {
		return nil, nil
	}
	return &models.User{ID: id, Username: r.URL.Query().Get("username")}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	var store persistence.Storage
	if cfg.DBType == "postgres" {
		store, err = persistence.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to initialize persistence", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("using PostgreSQL persistence")
	} else {
		mem := persistence.NewMemoryStore()
		persistence.SeedDefaults(mem)
		store = mem
		slog.Info("using in-memory persistence with seed data")
	}
	defer store.Close()

	registry := services.NewRegistry()
	manager := handlers.NewClientManager()
	loot := services.NewLootService(store, rand.New(rand.NewSource(time.Now().UnixNano())))
	game := services.NewGameService(store, registry, manager, loot)

	var identity handlers.Identity = devIdentity{}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		user, err := identity.ResolveUser(r)
		if err != nil {
			slog.Warn("identity resolution failed", slog.String("error", err.Error()))
			user = nil
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("failed to upgrade connection", slog.String("error", err.Error()))
			return
		}

		handlers.HandleClientConnection(conn, user, game, manager, cfg.CommandTimeout)
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("server stopped")
}
