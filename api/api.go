// Package api exposes the marketplace over HTTP: auth, profiles,
// listings, trades, chats, and search.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/nshah/campusmarket/config"
	"github.com/nshah/campusmarket/identity"
	"github.com/nshah/campusmarket/market"
	"github.com/nshah/campusmarket/session"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	cfg      *config.Config
	ids      *identity.Store
	sessions *session.Manager
	market   *market.Store
	limiter  *loginRateLimiter
	audit    *auditLogger
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// New creates a new API instance.
func New(cfg *config.Config, ids *identity.Store, sessions *session.Manager, mkt *market.Store, opts ...Option) *API {
	a := &API{
		cfg:      cfg,
		ids:      ids,
		sessions: sessions,
		market:   mkt,
		limiter:  newLoginRateLimiter(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(a.CSRFMiddleware)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Post("/auth/register", a.Register)
	r.Post("/auth/login", a.Login)
	r.Post("/auth/logout", a.Logout)
	r.Get("/auth/session", a.SessionInfo)
	r.Post("/auth/reset/request", a.RequestReset)
	r.Get("/auth/reset/verify", a.VerifyReset)
	r.Post("/auth/reset/confirm", a.ConfirmReset)

	r.Get("/users/profile", a.GetProfile)
	r.Put("/users/profile", a.UpdateProfile)
	r.Get("/users/profile/posts", a.ListOwnPosts)

	r.Get("/posts", a.ListPosts)
	r.Post("/posts", a.CreatePost)
	r.Get("/posts/{postID}", a.GetPost)
	r.Put("/posts/{postID}", a.UpdatePost)
	r.Delete("/posts/{postID}", a.DeletePost)
	r.Post("/posts/{postID}/favorite", a.FavoritePost)

	r.Get("/roommates", a.ListRoommates)
	r.Post("/roommates", a.CreateRoommate)
	r.Get("/roommates/{roommateID}", a.GetRoommate)
	r.Put("/roommates/{roommateID}", a.UpdateRoommate)
	r.Delete("/roommates/{roommateID}", a.DeleteRoommate)

	r.Get("/trades", a.ListTrades)
	r.Post("/trades", a.CreateTrade)
	r.Get("/trades/{tradeID}", a.GetTrade)
	r.Post("/trades/{tradeID}/close", a.CloseTrade)

	r.Get("/chats", a.ListChats)
	r.Post("/chats", a.CreateChat)
	r.Get("/chats/{chatID}", a.GetChat)
	r.Post("/chats/{chatID}/messages", a.SendMessage)

	r.Get("/search", a.Search)

	return r
}
