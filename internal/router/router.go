package router // package router defines how HTTP routes are registered for the API

import (
	"log"      // server-side logging of unexpected errors
	"net/http" // status codes

	"github.com/labstack/echo/v4"                          // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"        // Echo's built-in middleware (CORS)
	"github.com/redis/go-redis/v9"                         // Redis client backing the rate limiter

	"github.com/astrivya/backend/internal/config"     // app configuration
	"github.com/astrivya/backend/internal/handler"    // HTTP handlers
	"github.com/astrivya/backend/internal/middleware" // rate limiting and JWT middleware
)

// Register wires every route of the service onto the provided Echo
// instance: the public health check, the CORS policy, the rate-limited
// /api/auth group and the protected /api/auth/me endpoint.  It also
// installs the global error handler that normalizes unknown routes and
// unexpected failures to the {error, code} body shape.
func Register(e *echo.Echo, cfg config.Config, rlCfg config.RateLimitConfig, rdb *redis.Client, a *handler.AuthHandler) {
	e.HTTPErrorHandler = errorHandler(cfg.IsDevelopment())

	// CORS: origins come from ALLOWED_ORIGINS; development mode allows all.
	// Requests without an Origin header (curl, mobile clients) pass through
	// untouched, which is the browser-enforced nature of CORS anyway.
	origins := cfg.AllowedOrigins
	if cfg.IsDevelopment() {
		origins = []string{"*"}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Requested-With", echo.HeaderAccept},
		AllowCredentials: !cfg.IsDevelopment(),
	}))

	// Health check sits outside /api so it is never rate limited.
	e.GET("/health", handler.Health(cfg.AppName+"-backend"))

	// All /api routes share the fixed-window per-IP limiter.
	api := e.Group("/api", middleware.NewFixedWindow(rlCfg, rdb))

	auth := api.Group("/auth")
	auth.POST("/send-otp", a.SendOTP)
	auth.POST("/login-otp", a.LoginOTP)
	auth.POST("/verify-otp", a.VerifyOTP)
	auth.GET("/me", a.Me, middleware.JWTAuth(cfg.JWTSecret))
}

// errorHandler translates anything the handlers did not map themselves.
// Unknown routes become 404 NOT_FOUND; everything else is logged with
// detail server-side and surfaced as a generic 500 INTERNAL_ERROR, with the
// underlying message included only in development mode.
func errorHandler(isDev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			switch he.Code {
			case http.StatusNotFound:
				_ = c.JSON(http.StatusNotFound, echo.Map{
					"error": "Endpoint not found",
					"code":  "NOT_FOUND",
				})
				return
			case http.StatusMethodNotAllowed:
				_ = c.JSON(http.StatusMethodNotAllowed, echo.Map{
					"error": "Method not allowed",
					"code":  "METHOD_NOT_ALLOWED",
				})
				return
			}
		}

		log.Printf("request failed: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)

		msg := "Internal server error"
		if isDev {
			msg = err.Error()
		}
		_ = c.JSON(http.StatusInternalServerError, echo.Map{
			"error": msg,
			"code":  "INTERNAL_ERROR",
		})
	}
}
