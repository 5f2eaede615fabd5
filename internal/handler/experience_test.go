package handler

import (
    "context"
    "net/http"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
    "github.com/iliyamo/kashiyatra-booking/internal/repository"
)

type fakeExperiences struct {
    rows  []model.Experience
    lastQ repository.ExperienceQuery
}

func (f *fakeExperiences) List(_ context.Context, q repository.ExperienceQuery) ([]model.Experience, int64, error) {
    f.lastQ = q
    var out []model.Experience
    for _, x := range f.rows {
        if q.Category == "" || x.Category == q.Category {
            out = append(out, x)
        }
    }
    return out, int64(len(out)), nil
}

func (f *fakeExperiences) GetByID(_ context.Context, id uint64) (*model.Experience, error) {
    for _, x := range f.rows {
        if x.ID == id {
            return &x, nil
        }
    }
    return nil, repository.ErrNotFound
}

func newExperienceEcho() (*echo.Echo, *fakeExperiences) {
    store := &fakeExperiences{rows: []model.Experience{
        {ID: 1, Name: "Ganga Aarti Boat Ride", Category: model.ExperienceSpiritual, Price: 1500,
            Duration: model.ExperienceDuration{Value: 2, Unit: "hours"}, IsActive: true},
        {ID: 2, Name: "Banarasi Food Walk", Category: model.ExperienceCulinary, Price: 900,
            Duration: model.ExperienceDuration{Value: 3, Unit: "hours"}, IsActive: true},
    }}
    h := NewExperienceHandler(store)
    e := echo.New()
    e.GET("/v1/experiences", h.List)
    e.GET("/v1/experiences/:id", h.Get)
    return e, store
}

func TestExperienceList(t *testing.T) {
    e, store := newExperienceEcho()

    rec := do(e, http.MethodGet, "/v1/experiences?category=Culinary&location=ghat", "", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
    }
    var body struct {
        Success bool               `json:"success"`
        Count   int                `json:"count"`
        Data    []model.Experience `json:"data"`
    }
    decode(t, rec, &body)
    if !body.Success || body.Count != 1 || body.Data[0].ID != 2 {
        t.Fatalf("envelope = %+v", body)
    }
    if store.lastQ.Location != "ghat" || store.lastQ.Limit != repository.DefaultLimit {
        t.Fatalf("query = %+v", store.lastQ)
    }

    if rec := do(e, http.MethodGet, "/v1/experiences?category=nightlife", "", ""); rec.Code != http.StatusBadRequest {
        t.Fatalf("unknown category status = %d", rec.Code)
    }
}

func TestExperienceGet(t *testing.T) {
    e, _ := newExperienceEcho()
    if rec := do(e, http.MethodGet, "/v1/experiences/1", "", ""); rec.Code != http.StatusOK {
        t.Fatalf("get status = %d", rec.Code)
    }
    if rec := do(e, http.MethodGet, "/v1/experiences/99", "", ""); rec.Code != http.StatusNotFound {
        t.Fatalf("missing status = %d", rec.Code)
    }
    if rec := do(e, http.MethodGet, "/v1/experiences/abc", "", ""); rec.Code != http.StatusBadRequest {
        t.Fatalf("bad id status = %d", rec.Code)
    }
}
