package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/productapp/catalog-backend/internal/health"
	"github.com/productapp/catalog-backend/internal/http/handler"
	"github.com/productapp/catalog-backend/internal/http/middleware"
	"github.com/productapp/catalog-backend/internal/http/response"
)

// Body limits: JSON routes stay small while the product form routes leave
// headroom above the 5MB image cap enforced by the asset store.
const (
	jsonBodyLimit    = 1 << 20
	productBodyLimit = 8 << 20
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	ProductHandler   *handler.ProductHandler
	AssetHandler     *handler.AssetHandler
	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	StaticImageDir   string
	Readiness        *health.ProbeRunner
	EnableOTelHTTP   bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))

	apiLimiter := middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware()
	authLimiter := middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(authLimiter, middleware.BodyLimit(jsonBodyLimit)).Post("/register", dep.AuthHandler.Register)
		r.With(authLimiter, middleware.BodyLimit(jsonBodyLimit)).Post("/login", dep.AuthHandler.Login)

		r.Route("/products", func(r chi.Router) {
			r.Use(apiLimiter)
			r.Get("/", dep.ProductHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(middleware.BodyLimit(productBodyLimit))
				r.Post("/", dep.ProductHandler.Create)
				r.Put("/{id}", dep.ProductHandler.Update)
			})
			r.Delete("/{id}", dep.ProductHandler.Delete)
		})
	})

	// Uploaded images stream from the asset store; the bundled static set
	// (including the default product image) comes straight off disk.
	r.Get("/uploads/{name}", dep.AssetHandler.Serve)
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(dep.StaticImageDir))))

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
