package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hungichi/melodies-BE/config"
	"github.com/Hungichi/melodies-BE/core/auth"
	"github.com/Hungichi/melodies-BE/db"
	"github.com/Hungichi/melodies-BE/logger"
	"github.com/Hungichi/melodies-BE/model"
	"github.com/Hungichi/melodies-BE/repository"
	"github.com/Hungichi/melodies-BE/storage"

	"github.com/gorilla/mux"
)

// Start initializes all backing services and runs the HTTP server until an
// interrupt arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	store, err := storage.NewMinioStorage(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()
	logger.Info("Successfully connected to Redis")

	userRepo := repository.NewMySQLUserRepository(db.DB)
	songRepo := repository.NewMySQLSongRepository(db.DB)
	requestRepo := repository.NewMySQLArtistRequestRepository(db.DB)
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)

	apiHandler := NewAPIHandler(userRepo, songRepo, requestRepo, store, tokens, cfg)

	router := NewRouter(apiHandler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// NewRouter builds the route table.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)

	// Auth endpoints
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/profile", h.AuthMiddleware(h.UpdateProfileHandler)).Methods(http.MethodPut, http.MethodPatch)

	// Artist request endpoints. Approval is the only path to the artist role.
	router.HandleFunc("/api/artist-requests", h.AuthMiddleware(h.RequireRole(h.CreateArtistRequestHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/artist-requests/me", h.AuthMiddleware(h.RequireRole(h.MyArtistRequestHandler))).Methods(http.MethodGet)
	router.HandleFunc("/api/artist-requests/admin/all", h.AuthMiddleware(h.RequireRole(h.ListArtistRequestsHandler, model.RoleAdmin))).Methods(http.MethodGet)
	router.HandleFunc("/api/artist-requests/admin/{requestId}", h.AuthMiddleware(h.RequireRole(h.UpdateArtistRequestStatusHandler, model.RoleAdmin))).Methods(http.MethodPatch)

	// Song endpoints. Trending must be registered before the {id} route.
	router.HandleFunc("/api/songs/trending", h.TrendingHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", h.ListSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", h.AuthMiddleware(h.RequireRole(h.CreateSongHandler, model.RoleArtist, model.RoleAdmin))).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}", h.OptionalAuthMiddleware(h.GetSongHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", h.AuthMiddleware(h.RequireRole(h.UpdateSongHandler))).Methods(http.MethodPut)
	router.HandleFunc("/api/songs/{id}", h.AuthMiddleware(h.RequireRole(h.DeleteSongHandler))).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id}/like", h.AuthMiddleware(h.RequireRole(h.LikeSongHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/{id}/like", h.AuthMiddleware(h.RequireRole(h.UnlikeSongHandler))).Methods(http.MethodDelete)
	router.HandleFunc("/api/songs/{id}/comments", h.ListCommentsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/comments", h.AuthMiddleware(h.RequireRole(h.AddCommentHandler))).Methods(http.MethodPost)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
