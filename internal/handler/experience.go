package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
)

// ExperienceStore is the read side of the experience catalogue.
type ExperienceStore interface {
    List(ctx context.Context, q repository.ExperienceQuery) ([]model.Experience, int64, error)
    GetByID(ctx context.Context, id uint64) (*model.Experience, error)
}

// ExperienceHandler serves the public experience catalogue.
type ExperienceHandler struct {
    Experiences ExperienceStore
}

func NewExperienceHandler(s ExperienceStore) *ExperienceHandler {
    return &ExperienceHandler{Experiences: s}
}

// List handles GET /v1/experiences.  Supported query parameters are
// search, category, location, sort, page and limit.
func (h *ExperienceHandler) List(c echo.Context) error {
    category := strings.ToLower(strings.TrimSpace(c.QueryParam("category")))
    if category != "" && !model.IsExperienceCategory(category) {
        return badRequest(c, "category", "must be one of: "+strings.Join(model.ExperienceCategories, ", "))
    }
    page, limit, _ := repository.NormalizePage(queryInt(c, "page"), queryInt(c, "limit"))
    q := repository.ExperienceQuery{
        Search:   c.QueryParam("search"),
        Category: category,
        Location: c.QueryParam("location"),
        Sort:     c.QueryParam("sort"),
        Page:     page,
        Limit:    limit,
    }
    items, total, err := h.Experiences.List(c.Request().Context(), q)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error fetching experiences"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":    true,
        "count":      len(items),
        "pagination": pageLinks(page, limit, total),
        "total":      total,
        "data":       items,
    })
}

// Get handles GET /v1/experiences/:id.
func (h *ExperienceHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    x, err := h.Experiences.GetByID(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err, "experience not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": x})
}
