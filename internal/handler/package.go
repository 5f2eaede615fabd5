package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/middleware"
    "github.com/iliyamo/kashiyatra-booking/internal/model"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
)

// PackageStore is the package persistence behind the catalogue endpoints.
type PackageStore interface {
    List(ctx context.Context, q repository.PackageQuery) ([]model.Package, int64, error)
    GetByID(ctx context.Context, id uint64) (*model.Package, error)
    Create(ctx context.Context, p *model.Package) error
    Update(ctx context.Context, p *model.Package) error
    Delete(ctx context.Context, id uint64) error
    Categories(ctx context.Context) ([]string, error)
}

// PackageHandler serves the public catalogue and the admin package CRUD.
// OnChange runs after every successful write; the server uses it to drop
// cached catalogue responses.
type PackageHandler struct {
    Packages PackageStore
    OnChange func(ctx context.Context)
}

func NewPackageHandler(p PackageStore, onChange func(ctx context.Context)) *PackageHandler {
    return &PackageHandler{Packages: p, OnChange: onChange}
}

// packageView adds the derived discount to the stored package.
type packageView struct {
    model.Package
    DiscountPercentage int `json:"discountPercentage"`
}

func viewPackage(p model.Package) packageView {
    return packageView{Package: p, DiscountPercentage: p.DiscountPercentage()}
}

// packageInput lets an omitted isActive default to true on create.
type packageInput struct {
    model.Package
    IsActive *bool `json:"isActive"`
}

type pageRef struct {
    Page  int `json:"page"`
    Limit int `json:"limit"`
}

type pagination struct {
    Next *pageRef `json:"next,omitempty"`
    Prev *pageRef `json:"prev,omitempty"`
}

// pageLinks reports the neighbouring pages of a listing.
func pageLinks(page, limit int, total int64) pagination {
    var p pagination
    if int64(page*limit) < total {
        p.Next = &pageRef{Page: page + 1, Limit: limit}
    }
    if page > 1 {
        p.Prev = &pageRef{Page: page - 1, Limit: limit}
    }
    return p
}

// List handles GET /v1/packages.  Supported query parameters are search,
// category, minPrice, maxPrice, duration, sort (e.g. "price,-createdAt"),
// page and limit.
func (h *PackageHandler) List(c echo.Context) error {
    minPrice, err := queryFloat(c, "minPrice")
    if err != nil {
        return badRequest(c, "minPrice", "must be a number")
    }
    maxPrice, err := queryFloat(c, "maxPrice")
    if err != nil {
        return badRequest(c, "maxPrice", "must be a number")
    }
    page, limit, _ := repository.NormalizePage(queryInt(c, "page"), queryInt(c, "limit"))
    q := repository.PackageQuery{
        Search:   c.QueryParam("search"),
        Category: strings.ToLower(c.QueryParam("category")),
        MinPrice: minPrice,
        MaxPrice: maxPrice,
        Duration: queryInt(c, "duration"),
        Sort:     c.QueryParam("sort"),
        Page:     page,
        Limit:    limit,
    }
    items, total, err := h.Packages.List(c.Request().Context(), q)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error fetching packages"})
    }
    data := make([]packageView, 0, len(items))
    for _, p := range items {
        data = append(data, viewPackage(p))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":    true,
        "count":      len(data),
        "pagination": pageLinks(page, limit, total),
        "total":      total,
        "data":       data,
    })
}

// Get handles GET /v1/packages/:id.  Deactivated packages are still
// returned so existing bookings can show what was booked.
func (h *PackageHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    p, err := h.Packages.GetByID(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err, "package not found")
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": viewPackage(*p)})
}

// Categories handles GET /v1/packages/categories/list.
func (h *PackageHandler) Categories(c echo.Context) error {
    cats, err := h.Packages.Categories(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Server error fetching categories"})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": cats})
}

// Create handles POST /v1/packages (admin).
func (h *PackageHandler) Create(c echo.Context) error {
    var in packageInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    p := in.Package
    p.ID = 0
    p.Rating = model.Rating{}
    p.IsActive = in.IsActive == nil || *in.IsActive
    p.CreatedBy, _ = middleware.UserID(c)
    p.ApplyDefaults()
    if err := p.Validate(); err != nil {
        return writeError(c, err, "")
    }
    ctx := c.Request().Context()
    if err := h.Packages.Create(ctx, &p); err != nil {
        return writeError(c, err, "")
    }
    h.changed(ctx)
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": viewPackage(p)})
}

// Update handles PUT /v1/packages/:id (admin).  Fields absent from the
// body keep their stored values.
func (h *PackageHandler) Update(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    p, err := h.Packages.GetByID(ctx, id)
    if err != nil {
        return writeError(c, err, "package not found")
    }
    if err := c.Bind(p); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    p.ID = id
    p.ApplyDefaults()
    if err := p.Validate(); err != nil {
        return writeError(c, err, "")
    }
    if err := h.Packages.Update(ctx, p); err != nil {
        return writeError(c, err, "package not found")
    }
    h.changed(ctx)
    return c.JSON(http.StatusOK, echo.Map{"success": true, "data": viewPackage(*p)})
}

// Delete handles DELETE /v1/packages/:id (admin).  The package is
// deactivated, not removed, so existing bookings keep their reference.
func (h *PackageHandler) Delete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    if err := h.Packages.Delete(ctx, id); err != nil {
        return writeError(c, err, "package not found")
    }
    h.changed(ctx)
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Package deleted successfully"})
}

func (h *PackageHandler) changed(ctx context.Context) {
    if h.OnChange != nil {
        h.OnChange(ctx)
    }
}
