package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/danhyun/simpleshop/internal/domain"
	"github.com/danhyun/simpleshop/internal/metrics"
	"github.com/danhyun/simpleshop/internal/service"
)

// NewRouter wires the full HTTP surface. The session gate runs on every
// request; individual routes opt in to RequireAuth.
func NewRouter(
	auth *service.AuthService,
	products *service.ProductService,
	images *service.ImageService,
	sessions domain.SessionStore,
	users domain.UserRepository,
	sessionTTL time.Duration,
) http.Handler {
	authHandler := NewAuthHandler(auth, sessionTTL)
	productHandler := NewProductHandler(products)
	imageHandler := NewImageHandler(images)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(metrics.Middleware(routePattern))
	r.Use(SessionGate(sessions, users))

	r.Get("/healthz", HandleHealthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(RequireAuth).Get("/me", authHandler.HandleMe)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", productHandler.HandleList)
		r.Get("/{id}", productHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)
			r.Post("/", productHandler.HandleCreate)
			r.Put("/{id}", productHandler.HandleUpdate)
			r.Delete("/{id}", productHandler.HandleDelete)
			r.Post("/{id}/images", imageHandler.HandleReplaceAll)
			r.Delete("/{id}/images/{imageID}", imageHandler.HandleDeleteOne)
		})
	})

	return r
}

// routePattern returns the matched chi pattern so metric labels stay bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
