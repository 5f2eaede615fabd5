package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is the liveness probe used by load balancers.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// HealthHandler reports service status with the database reachability.
type HealthHandler struct {
    Env  string
    Ping func(ctx context.Context) error // optional database ping
}

// Status handles GET /v1/health.
func (h *HealthHandler) Status(c echo.Context) error {
    body := echo.Map{
        "status":      "OK",
        "message":     "KashiYatra API is running smoothly",
        "timestamp":   time.Now().UTC().Format(time.RFC3339),
        "environment": h.Env,
    }
    if h.Ping != nil {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := h.Ping(ctx); err != nil {
            body["status"] = "DEGRADED"
            body["database"] = "unreachable"
            return c.JSON(http.StatusServiceUnavailable, body)
        }
        body["database"] = "ok"
    }
    return c.JSON(http.StatusOK, body)
}

// NotFound is the JSON body for unknown routes.
var NotFound = echo.Map{"success": false, "message": "API route not found"}

// ErrorHandler renders echo errors as JSON.  Internal details are only
// exposed when debug is set.
func ErrorHandler(debug bool) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        code := http.StatusInternalServerError
        msg := "Internal Server Error"
        if he, ok := err.(*echo.HTTPError); ok {
            code = he.Code
            if m, ok := he.Message.(string); ok {
                msg = m
            }
        }
        var body echo.Map
        switch {
        case code == http.StatusNotFound:
            body = NotFound
        case code == http.StatusInternalServerError && debug:
            body = echo.Map{"success": false, "message": err.Error()}
        default:
            body = echo.Map{"success": false, "message": msg}
        }
        if code >= http.StatusInternalServerError {
            c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
        }
        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(code)
            return
        }
        _ = c.JSON(code, body)
    }
}
