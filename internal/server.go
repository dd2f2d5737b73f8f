package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcg25035/RiceCall-sub002/internal/dal"
	"github.com/mcg25035/RiceCall-sub002/internal/db"
	"github.com/mcg25035/RiceCall-sub002/internal/lockset"
	"github.com/mcg25035/RiceCall-sub002/internal/middleware"
	"github.com/mcg25035/RiceCall-sub002/internal/routes"
	"github.com/mcg25035/RiceCall-sub002/internal/services/channels"
	"github.com/mcg25035/RiceCall-sub002/internal/services/membership"
	"github.com/mcg25035/RiceCall-sub002/internal/services/messaging"
	"github.com/mcg25035/RiceCall-sub002/internal/services/presence"
	"github.com/mcg25035/RiceCall-sub002/internal/services/relationship"
	"github.com/mcg25035/RiceCall-sub002/internal/session"
	"github.com/rs/zerolog"
)

// Options are the settings CreateAndListen needs, read from the config by the run command.
type Options struct {
	Debug bool
	Host  string
	Port  int

	// DatabasePath is ignored when Memory is set.
	DatabasePath string
	Memory       bool

	AuthSecret string
	AuthIssuer string

	Limits routes.Limits
}

// OpenStore opens the sqlite store at path, or an in-memory store when memory is set.
func OpenStore(path string, memory bool) (dal.Store, error) {
	if memory {
		return dal.NewMemoryStore(), nil
	}
	conn, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return dal.NewSQLiteStore(conn), nil
}

// NewHandler builds every component around store and returns the full middleware-wrapped
// http handler together with the route handler, whose Close ends open websockets.
func NewHandler(opts Options, store dal.Store, log zerolog.Logger) (http.Handler, *routes.RouteHandler) {
	registry := session.NewRegistry()
	services := routes.Services{
		Relationship: relationship.New(store, lockset.New()),
		Membership:   membership.New(store),
		Channels:     channels.New(store, log),
		Presence:     presence.New(store),
		Messaging:    messaging.New(store),
	}

	// Initialize handlers with dependencies
	h := routes.NewRouteHandler(store, registry, services, opts.Limits, log)

	mux := http.NewServeMux()
	createRoutes(mux, h)

	// apply middlewares
	var handler http.Handler = mux
	if opts.Debug {
		handler = middleware.DebugLogging(handler, log)
	}
	handler = middleware.TokenAuth(handler, middleware.NewTokenVerifier(opts.AuthSecret, opts.AuthIssuer), log)
	return handler, h
}

// CreateAndListen runs the server until SIGINT or SIGTERM.
func CreateAndListen(opts Options, log zerolog.Logger) error {
	if opts.AuthSecret == "" {
		return errors.New("auth.secret must be set")
	}

	store, err := OpenStore(opts.DatabasePath, opts.Memory)
	if err != nil {
		return err
	}
	defer store.Close()

	handler, h := NewHandler(opts, store, log)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           handler,
	}

	// graceful shutdown channel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// run server
	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Bool("memory", opts.Memory).Msg("starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
			return
		}
		log.Info().Msg("stopped serving new connections")
	}()

	// receive stop signals
	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %w", err)
	case <-sigChan:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	h.Close()
	if err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}
	log.Info().Msg("graceful shutdown complete")
	return nil
}

// createRoutes creates the routing rules for the webserver
func createRoutes(mux *http.ServeMux, h *routes.RouteHandler) {
	mux.HandleFunc("GET /up", h.Up)
	mux.HandleFunc("GET /status", h.Status)
	mux.Handle("GET /ws", h.WSHandler())
}
