package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Bhuvanani14/goodcity/config"
	"github.com/Bhuvanani14/goodcity/internal/db"
	"github.com/Bhuvanani14/goodcity/internal/events"
	"github.com/Bhuvanani14/goodcity/internal/handlers"
	"github.com/Bhuvanani14/goodcity/internal/services"
	"github.com/Bhuvanani14/goodcity/internal/storage"
	"github.com/Bhuvanani14/goodcity/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and its shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
}

// New constructs a Server with its database, optional broker and object
// storage, and all routes wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	imageStore, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		if publisher != nil {
			_ = publisher.Close()
		}
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	issueRepo := store.NewIssueRepository(dbConn)
	bodyRepo := store.NewGovernmentBodyRepository(dbConn)

	authService := services.NewAuthService(userRepo)
	issueService := services.NewIssueService(issueRepo, userRepo, publisher)
	bodyService := services.NewGovernmentBodyService(bodyRepo)

	authMiddleware := handlers.RequireAuth(jwtSecret)
	issueHandler := handlers.NewIssueHandler(issueService, imageStore)
	adminHandler := handlers.NewAdminHandler(issueService, authService)
	bodyHandler := handlers.NewGovernmentBodyHandler(bodyService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, jwtSecret)
	})
	router.Route("/issues", func(r chi.Router) {
		handlers.IssueRouter(r, issueService, imageStore, authMiddleware)
	})
	router.With(authMiddleware).Get("/my-issues", issueHandler.MyIssues)
	router.With(authMiddleware, handlers.RequireAdmin).Get("/admin/stats", adminHandler.Stats)
	router.With(authMiddleware, handlers.RequireAdmin).Put("/admin/users/{userID}/active", adminHandler.SetUserActive)
	router.Get("/government-bodies", bodyHandler.List)
	if imageStore != nil {
		router.Get("/images/*", issueHandler.ServeImage)
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// newPublisher builds the configured event broker, or nil when events
// are disabled.
func newPublisher(ctx context.Context, cfg config.EventsConfig) (*events.Publisher, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := events.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(client, cfg.Channel), nil
	case "pubsub":
		client, err := events.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(client, cfg.Channel), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// newImageStore builds the configured object storage, or nil when image
// uploads are disabled.
func newImageStore(ctx context.Context, cfg config.StorageConfig) (*storage.ImageStore, error) {
	var backend storage.ObjectStorage
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	imageStore := storage.NewImageStore(backend)
	if err := imageStore.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return imageStore, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown and releases shared resources.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
