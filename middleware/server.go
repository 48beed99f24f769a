package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/time/rate"

	"github.com/robobar/plcbridge"
	_ "github.com/robobar/plcbridge/docs" // Import generated docs
	"github.com/robobar/plcbridge/internal/events"
)

// Server represents the HTTP server
type Server struct {
	config     *Config
	logger     *slog.Logger
	middleware *Middleware
	handler    *Handler
	router     *chi.Mux
	httpServer *http.Server

	run    func(ctx context.Context) error
	events *events.Client

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewServer creates the PLC client, the optional MQTT publisher and the HTTP
// server. Nothing connects to the PLC until Start.
func NewServer(config *Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var publisher *events.Client
	if config.MQTT.Enabled {
		ev, err := events.Connect(config.MQTT, logger)
		if err != nil {
			// The bridge serves orders without the event stream.
			logger.Warn("mqtt unavailable, order events disabled", "broker", config.MQTT.BrokerURL(), "error", err)
		} else {
			publisher = ev
		}
	}

	metrics := plcbridge.NewInMemoryMetrics()
	opts := append(config.ClientOptions(),
		plcbridge.WithLogger(plcbridge.NewSlogLogger(logger.With("component", "plc"))),
		plcbridge.WithMetrics(metrics),
		plcbridge.WithStateCallback(sessionReporter(publisher, logger)),
	)

	client, err := plcbridge.New(opts...)
	if err != nil {
		if publisher != nil {
			publisher.Close()
		}
		return nil, fmt.Errorf("failed to create PLC client: %w", err)
	}

	var pub Publisher
	if publisher != nil {
		pub = publisher
	}
	s := newServer(config, client, client.Run, pub, metrics, logger)
	s.events = publisher
	return s, nil
}

// newServer wires a server around any Bridge; run keeps its session alive.
func newServer(config *Config, bridge Bridge, run func(ctx context.Context) error, publisher Publisher, metrics *plcbridge.InMemoryMetrics, logger *slog.Logger) *Server {
	mw := NewMiddleware(bridge, config, publisher, metrics, plcbridge.NewSlogLogger(logger))

	s := &Server{
		config:     config,
		logger:     logger,
		middleware: mw,
		handler:    NewHandler(mw),
		run:        run,
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// sessionReporter publishes PLC session changes on the retained status topic.
func sessionReporter(publisher *events.Client, logger *slog.Logger) plcbridge.StateCallback {
	return func(oldState, newState plcbridge.ConnectionState, err error) {
		var connected bool
		switch {
		case newState == plcbridge.StateConnected:
			connected = true
		case oldState == plcbridge.StateConnected:
		default:
			return
		}

		if connected {
			logger.Info("PLC session established")
		} else {
			logger.Warn("PLC session lost", "error", err)
		}

		if publisher == nil {
			return
		}
		if perr := publisher.PublishSession(connected, err); perr != nil {
			logger.Warn("session status not published", "error", perr)
		}
	}
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// CORS
	if s.config.Server.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.Server.CORS.AllowedOrigins,
			AllowedMethods:   s.config.Server.CORS.AllowedMethods,
			AllowedHeaders:   s.config.Server.CORS.AllowedHeaders,
			AllowCredentials: s.config.Server.CORS.AllowCredentials,
			MaxAge:           300,
		}))
	}

	// Machine state and orders, on the paths the kiosks already use.
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Get("/DrinkTypes/", s.handler.HandleDrinkTypes)
		r.Get("/QueueState/", s.handler.HandleQueueState)
		r.Get("/PickUpDrinksState/", s.handler.HandlePickupDrinks)
		r.Get("/DrinkInProgress/{side}/", s.handler.HandleDrinkInProgress)
		r.Get("/PlcCurrentTime/", s.handler.HandlePLCTime)
		r.Get("/NewOrderStatus/", s.handler.HandleOrderStatus)

		r.With(s.orderLimiter()...).Post("/NewDrinkInQueue/", s.handler.HandleNewDrink)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handler.HandleHealth)
		r.Get("/info", s.handler.HandleInfo)
		r.Get("/version", s.handler.HandleGetVersion)
	})

	// WebSocket endpoint
	r.Get("/ws/subscribe", s.handler.HandleWebSocket)

	// Swagger UI
	r.Get("/swagger-ui/*", httpSwagger.WrapHandler)

	// Root
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"name":      "plcbridge",
			"version":   plcbridge.Version(),
			"docs":      "/swagger-ui/index.html",
			"websocket": "/ws/subscribe",
		})
	})

	s.router = r
}

func (s *Server) orderLimiter() []func(http.Handler) http.Handler {
	rl := s.config.Server.RateLimit
	if !rl.Enabled {
		return nil
	}
	return []func(http.Handler) http.Handler{
		NewIPRateLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst).Handler,
	}
}

// Start starts the PLC session and then the HTTP server. It blocks until the
// HTTP server stops and returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.startSession()

	s.logger.Info("starting server",
		"address", s.config.Address(),
		"plc_endpoint", s.config.PLC.Endpoint,
		"events", s.events != nil)

	return s.httpServer.ListenAndServe()
}

func (s *Server) startSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.run == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go func() {
		defer close(s.stopped)
		if err := s.run(ctx); err != nil {
			s.logger.Error("PLC session stopped", "error", err)
		}
	}()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
	}

	s.middleware.Close()

	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		select {
		case <-stopped:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("PLC session did not stop: %w", ctx.Err()))
		}
	}

	if s.events != nil {
		s.events.Close()
	}

	s.logger.Info("server stopped")
	return errors.Join(errs...)
}

// Router returns the chi router (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
