package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers
    "time"     // timestamp for the health payload

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health returns a health‑check handler used by load balancers and
// monitoring systems to verify that the service is running.  It reports the
// service name and the current UTC timestamp alongside a static "ok".
func Health(serviceName string) echo.HandlerFunc {
    return func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{
            "status":    "ok",
            "timestamp": time.Now().UTC().Format(time.RFC3339),
            "service":   serviceName,
        })
    }
}
