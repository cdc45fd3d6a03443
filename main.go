// Command vidstream-go serves the user-account backend of the video
// platform: registration, sessions, profile media, and the channel and
// watch-history read endpoints.
//
// @title Vidstream User API
// @version 1.0
// @description User-account backend: registration, authentication, profile media, channels, watch history.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/vidstream-go/apperror"
	"github.com/user/vidstream-go/auth"
	"github.com/user/vidstream-go/config"
	"github.com/user/vidstream-go/db"
	_ "github.com/user/vidstream-go/docs" // generated swagger docs
	"github.com/user/vidstream-go/media"
	"github.com/user/vidstream-go/users"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DB, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	uploader, err := media.NewS3Uploader(cfg.Media)
	if err != nil {
		log.Fatalf("Failed to create media uploader: %v", err)
	}

	issuer := auth.NewTokenIssuer(*cfg.Auth)
	credentials := auth.NewPGCredentialStore(pool)

	authService := auth.NewService(credentials, uploader, issuer)
	authHandlers := auth.NewHandlers(authService, cfg.Auth, cfg.Media.TempDir)

	userService := users.NewService(credentials, users.NewPGProfileStore(pool), uploader)
	userHandlers := users.NewHandlers(userService, cfg.Media.TempDir)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Panic recovery that keeps the JSON error envelope.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Printf("Panic: %+v", rvr)
					writeError(ww, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			writeError(w, apperror.NewDatabaseError("database unreachable", err))
			return
		}
		auth.WriteJSON(w, http.StatusOK, nil, "ok")
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1/users", func(r chi.Router) {
		// Public endpoints. The refresh token is its own credential.
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/refresh-token", authHandlers.HandleRefreshToken())

		// Everything else requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware(issuer))

			r.Post("/logout", authHandlers.HandleLogout())
			r.Patch("/change-password", authHandlers.HandleChangePassword())
			r.Get("/user-data", authHandlers.HandleCurrentUser())
			r.Patch("/update-user", userHandlers.HandleUpdateProfile())
			r.Patch("/update-avatar", userHandlers.HandleUpdateAvatar())
			r.Patch("/update-cover", userHandlers.HandleUpdateCover())
			r.Get("/c/{username}", userHandlers.HandleChannelProfile())
			r.Get("/watch-history", userHandlers.HandleWatchHistory())
		})
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// writeError is a local helper for routes wired before the handler packages,
// like the panic recovery middleware and the health check.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"statusCode":500,"message":"failed to encode error response","success":false,"errors":[]}`, http.StatusInternalServerError)
	}
}
