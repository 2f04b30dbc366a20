package httpapi

import (
	"net/http"
	"time"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options controls the router's outer surface.
type Options struct {
	// AllowedOrigins feeds the /api CORS policy. Empty allows any origin.
	AllowedOrigins []string
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
	// MaxBodyBytes caps JSON request bodies. Zero selects 1 MiB.
	MaxBodyBytes int64
}

type handlers struct {
	engine  *storefront.Engine
	logger  *zap.Logger
	maxBody int64
}

// NewRouter returns the storefront HTTP surface.
func NewRouter(engine *storefront.Engine, logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{engine: engine, logger: logger, maxBody: opts.MaxBodyBytes}
	if h.maxBody <= 0 {
		h.maxBody = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(clientInfo)

	r.Get("/healthz", h.healthz)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: !allowsAny(origins),
			MaxAge:           int((10 * time.Minute).Seconds()),
		}))

		api.Route("/auth", func(auth chi.Router) {
			auth.Get("/me", h.me)
			auth.Post("/login", h.login)
			auth.Post("/logout", h.logout)
			auth.Post("/register", h.register)
		})

		api.Get("/shopify/products", h.products)
		api.Get("/shopify/products/{handle}", h.product)
		api.Post("/checkout", h.checkout)

		api.Get("/posts", h.posts)
		api.Get("/posts/{slug}", h.post)
		api.Get("/categories", h.categories)
		api.Post("/graphql", h.graphql)

		api.Post("/contact", h.contact)
		api.Post("/booking", h.booking)

		api.Group(func(private chi.Router) {
			private.Use(middleware.RequireUser(engine))
			private.Get("/dashboard/stats", h.dashboardStats)

			private.With(middleware.RequireRole(middleware.RoleAdministrator)).
				Get("/admin/report", h.securityReport)
		})
	})

	return r
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
