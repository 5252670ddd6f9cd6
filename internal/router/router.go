package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/dunskii/booking-waitlist/internal/config"
	"github.com/dunskii/booking-waitlist/internal/handler"
	"github.com/dunskii/booking-waitlist/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes and the protected
// /v1/me endpoint.  Accounts belong to administrative actors only;
// waitlist claimants never log in.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "STAFF"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the claimant-facing endpoints: availability
// queries and the waitlist lifecycle.  No JWT is applied; entry
// operations are authorised by per-entry tokens inside the handlers.
// The rate limiter shields these routes since they take anonymous
// traffic.
func RegisterPublic(e *echo.Echo, av *handler.AvailabilityHandler, w *handler.WaitlistHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1", middleware.RateLimit(rl, rdb))
	g.GET("/availability", av.Check)
	g.POST("/waitlist", w.Join)
	g.GET("/waitlist/:id", w.Get)
	g.DELETE("/waitlist/:id", w.Cancel)
	g.POST("/waitlist/:id/respond", w.Respond)
}

// RegisterAdmin registers block management and slot-freed ingestion
// under JWT authentication.  Block CRUD is restricted to ADMIN; STAFF
// may read blocks and report freed slots.
func RegisterAdmin(e *echo.Echo, b *handler.BlockHandler, w *handler.WaitlistHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	rw := g.Group("/blocks", middleware.RequireRole("ADMIN"))
	rw.POST("", b.Create)
	rw.PUT("/:id", b.Update)
	rw.DELETE("/:id", b.Delete)

	ro := g.Group("", middleware.RequireRole("ADMIN", "STAFF"))
	ro.GET("/blocks", b.List)
	ro.GET("/blocks/:id", b.Get)
	ro.POST("/slot-freed", w.SlotFreed)
}
