// Package router registers the API routes on an echo instance.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/handler"
    "github.com/iliyamo/kashiyatra-booking/internal/middleware"
    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

// RegisterRoutes registers the unauthenticated health endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
    e.GET("/healthz", handler.Health)
    e.GET("/v1/health", h.Status)
}

// RegisterAuth registers token issuing under /v1/auth, the profile
// endpoint and the admin role change.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout accepts either a refresh token or a bearer, so it sits
    // outside the JWT group.
    g.POST("/logout", a.Logout)

    jwt := middleware.JWTAuth(jwtSecret)
    e.GET("/v1/me", a.Me, jwt)
    g.GET("/me", a.Me, jwt)
    e.PUT("/v1/admin/users/:id/role", a.SetRole, jwt, middleware.RequireRole(model.RoleAdmin))
}

// RegisterPackages registers the public catalogue and the admin package
// CRUD.  cache wraps the public reads only.
func RegisterPackages(e *echo.Echo, p *handler.PackageHandler, jwtSecret string, cache echo.MiddlewareFunc) {
    pub := e.Group("/v1/packages", cache)
    pub.GET("", p.List)
    pub.GET("/categories/list", p.Categories)
    pub.GET("/:id", p.Get)

    // Writes share the path prefix, so they carry route-level middleware
    // instead of a second group.
    admin := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin)}
    e.POST("/v1/packages", p.Create, admin...)
    e.PUT("/v1/packages/:id", p.Update, admin...)
    e.DELETE("/v1/packages/:id", p.Delete, admin...)
}

// RegisterExperiences registers the read-only experience catalogue behind
// the same response cache as the package listing.
func RegisterExperiences(e *echo.Echo, x *handler.ExperienceHandler, cache echo.MiddlewareFunc) {
    g := e.Group("/v1/experiences", cache)
    g.GET("", x.List)
    g.GET("/:id", x.Get)
}

// RegisterBookings registers the booking lifecycle endpoints.  Customers
// and admins may use them; ownership is checked per booking.  Guides get
// a read-only view of their assignments and admins a management view.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
    jwt := middleware.JWTAuth(jwtSecret)

    g := e.Group("/v1/bookings", jwt, middleware.RequireRole(model.RoleCustomer, model.RoleAdmin, model.RoleGuide))
    g.POST("", b.Create, middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
    g.GET("/my", b.Mine)
    g.GET("/:bookingId", b.Get)
    g.PATCH("/:bookingId", b.Update)
    g.POST("/:bookingId/payment", b.UpdatePayment)
    g.POST("/:bookingId/cancel", b.Cancel)
    g.POST("/:bookingId/reviews", b.AddReview)
    g.GET("/:bookingId/invoice", b.Invoice)

    admin := e.Group("/v1/admin/bookings", jwt, middleware.RequireRole(model.RoleAdmin))
    admin.GET("", b.List)
    admin.PUT("/:bookingId/guide", b.AssignGuide)
    admin.PATCH("/:bookingId/status", b.SetStatus)

    guide := e.Group("/v1/guide/bookings", jwt, middleware.RequireRole(model.RoleGuide))
    guide.GET("", b.List)
}
