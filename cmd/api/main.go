package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/dkrasnov/feed-service/internal/auth"
	"github.com/dkrasnov/feed-service/internal/config"
	"github.com/dkrasnov/feed-service/internal/handler"
	"github.com/dkrasnov/feed-service/internal/janitor"
	"github.com/dkrasnov/feed-service/internal/mailer"
	"github.com/dkrasnov/feed-service/internal/middleware"
	"github.com/dkrasnov/feed-service/internal/realtime"
	"github.com/dkrasnov/feed-service/internal/repository"
	"github.com/dkrasnov/feed-service/internal/service"
	"github.com/dkrasnov/feed-service/internal/storage"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	_ = godotenv.Load()
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	images, err := storage.NewImageStore(cfg.ImageDir)
	if err != nil {
		logger.Fatalf("Failed to initialize image store: %v", err)
	}
	hub := realtime.NewHub(logger)
	var mail service.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSender(cfg, logger)
	}
	svc := service.NewService(repo, repo, tokens, images, hub, mail, logger, cfg.ItemsPerPage)
	h := handler.NewHandler(svc, images, logger, cfg.PublicURL)

	// Schedule orphaned-image cleanup
	sweeper, err := janitor.New(repo, cfg.ImageDir, logger).Start(cfg.CleanupSchedule)
	if err != nil {
		logger.Fatalf("Failed to start janitor: %v", err)
	}
	defer sweeper.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.CORS)
	// Public routes
	r.HandleFunc("/auth/signup", h.Signup).Methods("PUT")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/feed/rss", h.RSS).Methods("GET")
	r.PathPrefix("/images/").Handler(http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.ImageDir))))
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(tokens))
	authRouter.HandleFunc("/auth/status", h.GetStatus).Methods("GET")
	authRouter.HandleFunc("/auth/status", h.UpdateStatus).Methods("PATCH")
	authRouter.HandleFunc("/feed/posts", h.GetPosts).Methods("GET")
	authRouter.HandleFunc("/feed/post", h.CreatePost).Methods("POST")
	authRouter.HandleFunc("/feed/post/{postId}", h.GetPost).Methods("GET")
	authRouter.HandleFunc("/feed/post/{postId}", h.UpdatePost).Methods("PUT")
	authRouter.HandleFunc("/feed/post/{postId}", h.DeletePost).Methods("DELETE")
	authRouter.Handle("/ws", hub).Methods("GET")

	// Start server. No write timeout: the websocket feed keeps connections
	// open indefinitely.
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
