// Package server orchestrates all components: NATS client, DB, session
// registry, order machine, dispatcher, and the HTTP console.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/biteme/order-platform/internal/config"
	"github.com/biteme/order-platform/pkg/db"
	"github.com/biteme/order-platform/pkg/dispatcher"
	"github.com/biteme/order-platform/pkg/notify"
	"github.com/biteme/order-platform/pkg/orders"
	"github.com/biteme/order-platform/pkg/protocol"
	"github.com/biteme/order-platform/pkg/session"
	"github.com/biteme/order-platform/pkg/transport"
)

const logPrefix = "server:server"

// Server is the biteme platform orchestrator.
type Server struct {
	cfg        *config.Config
	pool       *pgxpool.Pool
	httpServer *http.Server
	sessions   *session.Registry
	repo       *db.Repository
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	// Setup structured logging
	var logLevel slog.Level
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting biteme-server", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	requestSubject := cfg.RequestSubject
	if requestSubject == "" {
		requestSubject = transport.SubjectRequests
	}
	eventsSubject := cfg.EventsSubject
	if eventsSubject == "" {
		eventsSubject = transport.SubjectEvents
	}
	slog.Info(fmt.Sprintf("%s - Request subject: %s, events subject: %s", logPrefix, requestSubject, eventsSubject))

	// Step 1: Connect to NATS
	nc, err := transport.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))

	// Step 2: Connect to database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		nc.Close()
		return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	s.pool = pool

	// Step 2b: Run migrations and seed if enabled
	if cfg.RunMigrations {
		migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			pool.Close()
			nc.Close()
			return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
			pool.Close()
			nc.Close()
			return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
		if err := db.Seed(ctx, pool, cfg.SeedFile); err != nil {
			pool.Close()
			nc.Close()
			return fmt.Errorf("%s - failed to seed data: %w", logPrefix, err)
		}
	}

	// Step 3: Sessions. Clear connected flags left over from an unclean
	// shutdown before accepting logins.
	repo := db.NewRepository(pool)
	s.repo = repo
	sessions := session.NewRegistry(repo)
	s.sessions = sessions
	if err := sessions.Reconcile(ctx); err != nil {
		pool.Close()
		nc.Close()
		return fmt.Errorf("%s - failed to reconcile sessions: %w", logPrefix, err)
	}

	// Step 4: Notification bus. The bridge broadcasts every event on the
	// events subject; the targeted forwarder additionally pushes events
	// naming a recipient straight to that client's private subject.
	bus := notify.NewBus()
	bridge := notify.NewCommsBridge(nc, eventsSubject, bus)
	serverTransport := transport.New(nc, "")
	targeted := bus.Subscribe(func(event notify.Event) {
		if event.Recipient == "" {
			return
		}
		sess := sessions.Get(event.Recipient)
		if sess == nil || sess.ClientSubject == "" {
			return
		}
		env, err := protocol.NewEnvelope(event.Tag, event)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to build %s push: %v", logPrefix, event.Tag, err))
			return
		}
		if err := serverTransport.Send(sess.ClientSubject, env); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to push %s to %s: %v", logPrefix, event.Tag, event.Recipient, err))
		}
	})

	// Step 5: Order machine and service
	machine := orders.NewMachine(repo, bus, cfg.AutoAdvanceDelay)
	orderSvc := orders.NewService(repo, machine)

	// Step 6: Dispatcher and request subscription
	disp, err := dispatcher.NewDispatcher(sessions, orderSvc, repo, cfg.MinClientVersion)
	if err != nil {
		pool.Close()
		nc.Close()
		return err
	}

	requestTimeout := cfg.RequestTimeout
	err = serverTransport.Subscribe(requestSubject, func(env *protocol.Envelope, reply string) {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		resp := disp.Dispatch(reqCtx, env, dispatcher.Meta{ClientSubject: reply, NetworkAddr: reply})
		if resp == nil || reply == "" {
			return
		}
		if err := serverTransport.Send(reply, resp); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to send %s reply: %v", logPrefix, resp.Tag, err))
		}
	})
	if err != nil {
		pool.Close()
		nc.Close()
		return err
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, requestSubject))

	// Step 7: Start HTTP console
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		healthCtx, cancel := context.WithTimeout(r.Context(), cfg.HealthCheckTimeout)
		defer cancel()
		h := s.health(healthCtx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	httpAddr := s.cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	s.httpServer = &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP console listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Biteme server is ready", logPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown. The machine drains its timers before the
	// connection and pool go away.
	serverTransport.Close()
	s.httpServer.Shutdown(ctx)
	machine.Close()
	targeted.Unsubscribe()
	bridge.Close()
	nc.Drain()
	pool.Close()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// healthOutput is the /health response body.
type healthOutput struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks"`
	Sessions  int             `json:"sessions"`
	Timestamp time.Time       `json:"timestamp"`
}

func (s *Server) health(ctx context.Context) *healthOutput {
	out := &healthOutput{
		Status:    "healthy",
		Checks:    map[string]bool{"database": true},
		Sessions:  len(s.sessions.Sessions()),
		Timestamp: time.Now().UTC(),
	}
	if err := s.pool.Ping(ctx); err != nil {
		out.Status = "unhealthy"
		out.Checks["database"] = false
	}
	return out
}
