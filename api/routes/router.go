package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greengomarket/greengo-backend/api/controllers"
	"github.com/greengomarket/greengo-backend/api/middleware"
	authsvc "github.com/greengomarket/greengo-backend/internal/auth"
	cartsvc "github.com/greengomarket/greengo-backend/internal/cart"
	"github.com/greengomarket/greengo-backend/internal/catalog"
	"github.com/greengomarket/greengo-backend/internal/orders"
	"github.com/greengomarket/greengo-backend/internal/support"
	"github.com/greengomarket/greengo-backend/pkg/auth/session"
	"github.com/greengomarket/greengo-backend/pkg/cartstream"
	"github.com/greengomarket/greengo-backend/pkg/config"
	"github.com/greengomarket/greengo-backend/pkg/db"
	"github.com/greengomarket/greengo-backend/pkg/logger"
	"github.com/greengomarket/greengo-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	AuthService    authsvc.Service
	CatalogService catalog.Service
	CartService    cartsvc.Service
	OrdersService  orders.Service
	SupportService support.Service
	CartStream     *cartstream.Subscriber
	Metrics        prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.GuestContext(logg),
		middleware.Idempotency(deps.Redis, logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).
			Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/federated", controllers.AuthLoginFederated(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
			r.Get("/me", controllers.AuthMe(deps.AuthService, logg))
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.CatalogService, logg))
		r.Get("/{productId}", controllers.ProductDetail(deps.CatalogService, logg))
	})

	// Cart and checkout serve guests and signed-in users alike; a valid
	// bearer token upgrades the owner identity, a guest token carries it.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthOptional(cfg.JWT, deps.Sessions, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
			r.Get("/summary", controllers.CartSummary(deps.CartService, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateQuantity(deps.CartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.CartService, logg))
			r.Get("/stream", controllers.CartStream(deps.CartService, deps.CartStream, logg))
		})

		r.Post("/api/v1/checkout", controllers.Checkout(deps.OrdersService, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderHistory(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersService, logg))
		})

		r.Route("/api/v1/support/tickets", func(r chi.Router) {
			r.Post("/", controllers.SupportCreateTicket(deps.SupportService, logg))
			r.Get("/", controllers.SupportMyTickets(deps.SupportService, logg))
			r.Get("/{ticketId}", controllers.SupportTicketDetail(deps.SupportService, logg))
			r.Post("/{ticketId}/replies", controllers.SupportReply(deps.SupportService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(deps.CatalogService, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.CatalogService, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.CatalogService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.OrdersService, logg))
			r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.OrdersService, logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", controllers.AdminListTickets(deps.SupportService, logg))
			r.Patch("/{ticketId}/status", controllers.AdminUpdateTicketStatus(deps.SupportService, logg))
		})
	})

	return r
}
