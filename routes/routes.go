package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sm4rtm4art/go-api-template/app"
	"github.com/sm4rtm4art/go-api-template/handlers"
	"github.com/sm4rtm4art/go-api-template/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) (http.Handler, error) {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.PropagateRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: deps.Config.Server.CORSCredentials,
		MaxAge:           300,
	}))

	// Health check endpoints
	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.Cloud, deps.Logger)
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Feature modules
	registry := app.NewModuleRegistry(deps.Logger)
	for _, m := range []app.Module{
		&AuthModule{},
		&UserModule{},
		&ProfileModule{},
		&ContentModule{},
		&StorageModule{},
	} {
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}

	if err := registry.MountAll(r, deps, deps.Config.Server.DisabledModules); err != nil {
		return nil, err
	}

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r, nil
}

// AuthModule mounts the token endpoints at the root
type AuthModule struct{}

func (*AuthModule) Name() string       { return "auth" }
func (*AuthModule) Requires() []string { return nil }

func (*AuthModule) Mount(r chi.Router, deps *app.Dependencies) {
	h := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Logger)
	r.Post("/token", h.HandleToken)
	r.Post("/refresh_token", h.HandleRefreshToken)
}

// UserModule mounts user management under /api/v1/user
type UserModule struct{}

func (*UserModule) Name() string       { return "user" }
func (*UserModule) Requires() []string { return []string{"auth"} }

func (*UserModule) Mount(r chi.Router, deps *app.Dependencies) {
	h := handlers.NewUserHandler(deps.Users, deps.Logger)

	r.Route("/api/v1/user", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAdmin)
			r.Get("/", h.HandleListUsers)
			r.Post("/", h.HandleCreateUser)
			r.Delete("/{id}", h.HandleDeleteUser)
		})

		r.Get("/{id}", h.HandleGetUser)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireFresh)
			r.Patch("/{id}/password", h.HandleUpdatePassword)
		})
	})
}

// ProfileModule mounts the current-user endpoint under /api/v1/profile
type ProfileModule struct{}

func (*ProfileModule) Name() string       { return "profile" }
func (*ProfileModule) Requires() []string { return []string{"auth"} }

func (*ProfileModule) Mount(r chi.Router, deps *app.Dependencies) {
	h := handlers.NewUserHandler(deps.Users, deps.Logger)

	r.Route("/api/v1/profile", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Get("/me", h.HandleCurrentUser)
	})
}

// ContentModule mounts content management under /api/v1/content
type ContentModule struct{}

func (*ContentModule) Name() string       { return "content" }
func (*ContentModule) Requires() []string { return []string{"auth"} }

func (*ContentModule) Mount(r chi.Router, deps *app.Dependencies) {
	h := handlers.NewContentHandler(deps.Content, deps.TxManager, deps.Logger)

	r.Route("/api/v1/content", func(r chi.Router) {
		// Reads are public
		r.Get("/", h.HandleListContent)
		r.Get("/{id_or_slug}", h.HandleGetContent)

		// Writes require authentication
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/", h.HandleCreateContent)
			r.Patch("/{id}", h.HandleUpdateContent)
			r.Delete("/{id}", h.HandleDeleteContent)
		})
	})
}

// StorageModule mounts provider object storage under /api/v1/storage
type StorageModule struct{}

func (*StorageModule) Name() string       { return "storage" }
func (*StorageModule) Requires() []string { return []string{"auth"} }

func (*StorageModule) Mount(r chi.Router, deps *app.Dependencies) {
	h := handlers.NewStorageHandler(deps.Cloud, deps.Logger)

	r.Route("/api/v1/storage", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleUpload)
		r.Get("/*", h.HandleDownload)
		r.Delete("/*", h.HandleDelete)
	})
}
