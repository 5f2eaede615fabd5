package handler

import (
    "context"
    "net/http"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/middleware"
    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

func newPackageEcho(store *fakePackages) (*echo.Echo, *int) {
    changes := 0
    h := NewPackageHandler(store, func(context.Context) { changes++ })
    admin := []echo.MiddlewareFunc{middleware.JWTAuth(testSecret), middleware.RequireRole(model.RoleAdmin)}

    e := echo.New()
    e.GET("/v1/packages", h.List)
    e.GET("/v1/packages/categories/list", h.Categories)
    e.GET("/v1/packages/:id", h.Get)
    e.POST("/v1/packages", h.Create, admin...)
    e.PUT("/v1/packages/:id", h.Update, admin...)
    e.DELETE("/v1/packages/:id", h.Delete, admin...)
    return e, &changes
}

func samplePackage(id uint64) model.Package {
    return model.Package{
        ID:               id,
        Name:             "Kashi Darshan",
        Description:      "Temples and ghats of Varanasi",
        ShortDescription: "Three days in Varanasi",
        Price:            9000,
        OriginalPrice:    12000,
        Duration:         model.PackageDuration{Days: 3, Nights: 2},
        Categories:       []string{"spiritual"},
        Inclusions:       []string{"stay"},
        Difficulty:       "easy",
        MaxTravelers:     10,
        IsActive:         true,
    }
}

func TestPackageListEnvelope(t *testing.T) {
    store := newFakePackages(samplePackage(1), samplePackage(2))
    store.total = 25
    e, _ := newPackageEcho(store)

    rec := do(e, http.MethodGet, "/v1/packages?page=2&limit=10&category=Spiritual&minPrice=100", "", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
    }
    var body struct {
        Success    bool          `json:"success"`
        Count      int           `json:"count"`
        Total      int64         `json:"total"`
        Pagination pagination    `json:"pagination"`
        Data       []packageView `json:"data"`
    }
    decode(t, rec, &body)
    if !body.Success || body.Count != 2 || body.Total != 25 {
        t.Fatalf("envelope = %+v", body)
    }
    if body.Pagination.Next == nil || body.Pagination.Next.Page != 3 || body.Pagination.Prev == nil || body.Pagination.Prev.Page != 1 {
        t.Fatalf("pagination = %+v", body.Pagination)
    }
    if body.Data[0].DiscountPercentage != 25 {
        t.Fatalf("discount = %d", body.Data[0].DiscountPercentage)
    }
    if store.lastQ.Category != "spiritual" || store.lastQ.MinPrice == nil || *store.lastQ.MinPrice != 100 {
        t.Fatalf("query = %+v", store.lastQ)
    }

    if rec := do(e, http.MethodGet, "/v1/packages?maxPrice=cheap", "", ""); rec.Code != http.StatusBadRequest {
        t.Fatalf("bad maxPrice status = %d", rec.Code)
    }
}

func TestPageLinks(t *testing.T) {
    if p := pageLinks(1, 10, 10); p.Next != nil || p.Prev != nil {
        t.Fatalf("single page = %+v", p)
    }
    if p := pageLinks(1, 10, 11); p.Next == nil || p.Next.Page != 2 {
        t.Fatalf("first of two = %+v", p)
    }
}

func TestPackageAdminWrites(t *testing.T) {
    store := newFakePackages(samplePackage(1))
    e, changes := newPackageEcho(store)
    admin := bearer(t, 1, model.RoleAdmin)

    body := `{"name":"Ganga Aarti","description":"Evening aarti","shortDescription":"Aarti","price":1500,
        "duration":{"days":1,"nights":0},"categories":["cultural"],"inclusions":["boat"],"rating":{"average":5,"count":99}}`
    if rec := do(e, http.MethodPost, "/v1/packages", bearer(t, 7, model.RoleCustomer), body); rec.Code != http.StatusForbidden {
        t.Fatalf("customer create status = %d", rec.Code)
    }
    rec := do(e, http.MethodPost, "/v1/packages", admin, body)
    if rec.Code != http.StatusCreated {
        t.Fatalf("create status = %d body=%s", rec.Code, rec.Body)
    }
    created := store.rows[2]
    if created == nil || !created.IsActive || created.CreatedBy != 1 || created.Rating.Count != 0 {
        t.Fatalf("created = %+v", created)
    }

    rec = do(e, http.MethodPut, "/v1/packages/2", admin, `{"price":1800}`)
    if rec.Code != http.StatusOK {
        t.Fatalf("update status = %d body=%s", rec.Code, rec.Body)
    }
    if p := store.rows[2]; p.Price != 1800 || p.Name != "Ganga Aarti" {
        t.Fatalf("updated = %+v", p)
    }

    if rec := do(e, http.MethodPost, "/v1/packages", admin, `{"name":"Incomplete"}`); rec.Code != http.StatusBadRequest {
        t.Fatalf("invalid create status = %d", rec.Code)
    }

    if rec := do(e, http.MethodDelete, "/v1/packages/2", admin, ""); rec.Code != http.StatusOK {
        t.Fatalf("delete status = %d", rec.Code)
    }
    if store.rows[2].IsActive {
        t.Fatal("deleted package is still active")
    }
    // Deactivated packages stay readable by id.
    if rec := do(e, http.MethodGet, "/v1/packages/2", "", ""); rec.Code != http.StatusOK {
        t.Fatalf("get deactivated status = %d", rec.Code)
    }
    if rec := do(e, http.MethodDelete, "/v1/packages/42", admin, ""); rec.Code != http.StatusNotFound {
        t.Fatalf("delete missing status = %d", rec.Code)
    }
    if *changes != 3 {
        t.Fatalf("change hook ran %d times", *changes)
    }
}
