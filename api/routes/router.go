package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vapevault-backend/api/controllers"
	"github.com/angelmondragon/vapevault-backend/api/middleware"
	"github.com/angelmondragon/vapevault-backend/internal/account"
	"github.com/angelmondragon/vapevault-backend/internal/address"
	"github.com/angelmondragon/vapevault-backend/internal/admin"
	"github.com/angelmondragon/vapevault-backend/internal/assistant"
	"github.com/angelmondragon/vapevault-backend/internal/auth"
	"github.com/angelmondragon/vapevault-backend/internal/cart"
	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/internal/checkout"
	"github.com/angelmondragon/vapevault-backend/internal/orders"
	"github.com/angelmondragon/vapevault-backend/internal/reviews"
	"github.com/angelmondragon/vapevault-backend/internal/wishlist"
	pkgAuth "github.com/angelmondragon/vapevault-backend/pkg/auth"
	"github.com/angelmondragon/vapevault-backend/pkg/auth/session"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/vapevault-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	middleware.WindowCounter
	Ping(ctx context.Context) error
}

type httpObserver interface {
	Observe(method, route string, status int, elapsed time.Duration)
}

// Dependencies carries everything NewRouter wires into handlers. Nil stores
// disable the middleware that needs them.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
	HTTP     httpObserver

	Auth      auth.Service
	Account   account.Service
	Address   address.Service
	Catalog   catalog.Service
	Reviews   reviews.Service
	Cart      cart.Service
	Wishlist  wishlist.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Admin     admin.Service
	Assistant assistant.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewRateLimitPolicy(
		"signup",
		cfg.RateLimit.SignupWindow,
		cfg.RateLimit.SignupIPLimit,
		cfg.RateLimit.SignupEmailLimit,
	)
	chatPolicy := middleware.NewRateLimitPolicy(
		"chat",
		cfg.RateLimit.ChatWindow,
		cfg.RateLimit.ChatIPLimit,
		0,
	).WithStorefrontErrors()

	health := map[string]controllers.Pinger{"db": deps.DB, "redis": deps.Redis}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, health, logg))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/getProducts", controllers.LegacyGetProducts(deps.Catalog, logg))
		r.Get("/getProductByName", controllers.LegacyGetProductByName(deps.Catalog, logg))
		r.Get("/getProductsByBrand", controllers.LegacyGetProductsByBrand(deps.Catalog, logg))
		r.With(middleware.RateLimit(chatPolicy, deps.Redis, logg)).Post("/chat", controllers.Chat(deps.Assistant, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(signupPolicy, deps.Redis, logg)).Post("/signup", controllers.AuthSignup(deps.Auth, logg))
		r.With(middleware.RateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, pkgAuth.NewIssuer(cfg.JWT), logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", controllers.CatalogProducts(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.CatalogProduct(deps.Catalog, logg))
		r.Get("/products/{productId}/reviews", controllers.ReviewsList(deps.Reviews, logg))
		r.Get("/categories", controllers.CatalogCategories(deps.Catalog, logg))
		r.Get("/brands", controllers.CatalogBrands(deps.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/account", controllers.AccountGet(deps.Account, logg))
		r.Put("/account", controllers.AccountUpdate(deps.Account, logg))

		r.Get("/address/suggest", controllers.AddressSuggest(deps.Address, logg))
		r.Post("/address/resolve", controllers.AddressResolve(deps.Address, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartDeleteItem(deps.Cart, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
			r.Post("/toggle", controllers.WishlistToggle(deps.Wishlist, logg))
			r.Delete("/items/{itemId}", controllers.WishlistRemoveItem(deps.Wishlist, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrdersGet(deps.Orders, logg))
		})

		r.Post("/products/{productId}/reviews", controllers.ReviewsCreate(deps.Reviews, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/stats", controllers.AdminStats(deps.Admin, logg))
		r.Get("/analytics", controllers.AdminAnalytics(deps.Admin, logg))

		r.Get("/orders", controllers.AdminListOrders(deps.Admin, logg))
		r.Post("/orders/batch", controllers.AdminApplyOrderStatuses(deps.Admin, logg))

		r.Get("/users", controllers.AdminListUsers(deps.Admin, logg))
		r.Post("/users/batch", controllers.AdminApplyUserEdits(deps.Admin, logg))

		r.Get("/products", controllers.AdminListProducts(deps.Admin, logg))
		r.Post("/products", controllers.AdminCreateProduct(deps.Admin, logg))
		r.Post("/products/batch", controllers.AdminApplyProductEdits(deps.Admin, logg))
		r.Delete("/products/{productId}", controllers.AdminDeleteProduct(deps.Admin, logg))
	})

	return r
}
