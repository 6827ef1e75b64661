package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/harborview/homehub/internal/accounts"
	"github.com/harborview/homehub/internal/config"
	"github.com/harborview/homehub/internal/http/handlers"
	"github.com/harborview/homehub/internal/http/middlewares"
	"github.com/harborview/homehub/internal/observability"
)

// AccountsStore is everything the router's handlers need from the account
// repository: the auth service slice plus the profile operations.
type AccountsStore interface {
	accounts.Store
	handlers.AccountsStore
}

// ListingsStore combines CRUD/search with the owner listing lookup.
type ListingsStore interface {
	handlers.ListingsStore
	handlers.OwnerListings
}

// Deps carries the router's collaborators. SearchCache, Media, Prom, and
// Registry may be nil; the matching routes or middleware are then skipped.
type Deps struct {
	Accounts    AccountsStore
	Listings    ListingsStore
	Tokens      accounts.TokenIssuer
	Verifier    middlewares.TokenVerifier
	SearchCache handlers.SearchCache
	Media       handlers.Presigner
	Prom        *observability.Prom
	Registry    *prometheus.Registry
	Ping        func() error
}

func NewRouter(log *slog.Logger, cfg config.Config, d Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("homehub"))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// health + metrics

	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// wire up services and handlers

	authSvc := accounts.NewService(d.Accounts, d.Tokens)
	authHandler := handlers.NewAuthHandler(authSvc, cfg, d.Prom)
	listingsHandler := handlers.NewListingsHandler(d.Listings, d.SearchCache, d.Prom)
	usersHandler := handlers.NewUsersHandler(d.Accounts, d.Listings, cfg)

	requireAuth := middlewares.NewAuthMiddleware(d.Verifier).RequireAuth()

	// credential-stuffing protection on the auth surface
	authLimiter := middlewares.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute)

	// write endpoints are limited per account once the session is known
	writeLimiter := middlewares.NewRateLimiter(cfg.WriteRatePerMinute, time.Minute)
	limitWrites := writeLimiter.RateLimiterMiddleware(middlewares.KeyByAccountOrIP)

	authGroup := r.Group("/api/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/signin", authHandler.Signin)
		authGroup.POST("/google", authHandler.Google)
		authGroup.GET("/signout", authHandler.Signout)
	}

	listingGroup := r.Group("/api/listing")
	{
		listingGroup.GET("/get", listingsHandler.SearchListings)
		listingGroup.GET("/get/:id", listingsHandler.GetListingById)
		listingGroup.POST("/create", requireAuth, limitWrites, listingsHandler.CreateListing)
		listingGroup.POST("/update/:id", requireAuth, limitWrites, listingsHandler.UpdateListing)
		listingGroup.DELETE("/delete/:id", requireAuth, limitWrites, listingsHandler.DeleteListing)
	}

	userGroup := r.Group("/api/user")
	userGroup.Use(requireAuth)
	{
		userGroup.GET("/get/:id", usersHandler.GetUser)
		userGroup.POST("/update/:id", usersHandler.UpdateUser)
		userGroup.DELETE("/delete/:id", usersHandler.DeleteUser)
		userGroup.GET("/listings/:id", usersHandler.GetUserListings)
	}

	if d.Media != nil {
		uploadsHandler := handlers.NewUploadsHandler(d.Media)
		r.POST("/api/upload/presign", requireAuth, uploadsHandler.Presign)
	}

	return r
}
