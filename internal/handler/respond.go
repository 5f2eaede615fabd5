// Package handler exposes the HTTP handlers of the booking API.
package handler

import (
    "errors"
    "log"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/middleware"
    "github.com/iliyamo/kashiyatra-booking/internal/model"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
    "github.com/iliyamo/kashiyatra-booking/internal/service"
)

// writeError maps domain errors onto HTTP responses.  Unknown errors are
// logged and reported as a generic 500.
func writeError(c echo.Context, err error, notFound string) error {
    if v, ok := model.AsValidation(err); ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "violations": v})
    }
    var fe fieldError
    if errors.As(err, &fe) {
        return badRequest(c, fe.field, fe.msg)
    }
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": notFound})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict with current state"})
    case errors.Is(err, repository.ErrDuplicateBookingID):
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking id already exists"})
    }
    log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// badRequest reports a single malformed input field.
func badRequest(c echo.Context, field, msg string) error {
    var v model.ValidationErrors
    v.Add(field, "format", msg)
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "violations": v})
}

// actorFrom returns the authenticated caller.
func actorFrom(c echo.Context) (service.Actor, bool) {
    id, ok := middleware.UserID(c)
    if !ok {
        return service.Actor{}, false
    }
    return service.Actor{UserID: id, Role: middleware.Role(c)}, true
}

func parseID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}

func queryInt(c echo.Context, name string) int {
    n, _ := strconv.Atoi(c.QueryParam(name))
    return n
}

func queryFloat(c echo.Context, name string) (*float64, error) {
    s := c.QueryParam(name)
    if s == "" {
        return nil, nil
    }
    f, err := strconv.ParseFloat(s, 64)
    if err != nil {
        return nil, err
    }
    return &f, nil
}
