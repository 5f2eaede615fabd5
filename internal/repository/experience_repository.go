package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

// ExperienceRepo reads the experiences table.  Rows are maintained out of
// band, so only lookups are offered.
type ExperienceRepo struct {
    db *sql.DB
}

func NewExperienceRepo(db *sql.DB) *ExperienceRepo { return &ExperienceRepo{db: db} }

// ExperienceQuery holds the public listing filters.  Only active
// experiences are listed.
type ExperienceQuery struct {
    Search   string
    Category string
    Location string
    Sort     string
    Page     int
    Limit    int
}

const experienceColumns = `id, name, description, short_description, price, duration_value,
    duration_unit, category, location, meeting_point, includes, requirements, images,
    max_participants, available_slots, guide_id, rating_average, rating_count, is_active,
    highlights, created_at, updated_at`

var experienceSortColumns = map[string]string{
    "price":     "price",
    "name":      "name",
    "rating":    "rating_average",
    "createdAt": "created_at",
}

func buildExperienceWhere(q ExperienceQuery) (string, []any) {
    where := []string{"is_active = 1"}
    args := []any{}
    if s := strings.TrimSpace(q.Search); s != "" {
        p := likePattern(s)
        where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
        args = append(args, p, p)
    }
    if c := strings.TrimSpace(q.Category); c != "" {
        where = append(where, "category = ?")
        args = append(args, strings.ToLower(c))
    }
    if l := strings.TrimSpace(q.Location); l != "" {
        where = append(where, "LOWER(location) LIKE ?")
        args = append(args, likePattern(l))
    }
    return strings.Join(where, " AND "), args
}

// List returns one page of active experiences and the total number of
// matches, best rated first by default.
func (r *ExperienceRepo) List(ctx context.Context, q ExperienceQuery) ([]model.Experience, int64, error) {
    cond, args := buildExperienceWhere(q)

    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM experiences WHERE "+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    _, limit, offset := NormalizePage(q.Page, q.Limit)
    query := "SELECT " + experienceColumns + " FROM experiences WHERE " + cond +
        buildOrder(q.Sort, experienceSortColumns, "rating_average DESC", "id DESC") + " LIMIT ? OFFSET ?"
    rows, err := r.db.QueryContext(ctx, query, append(append([]any{}, args...), limit, offset)...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := make([]model.Experience, 0, limit)
    for rows.Next() {
        x, err := scanExperience(rows)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, *x)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// GetByID returns an active experience.  Inactive rows read as missing.
func (r *ExperienceRepo) GetByID(ctx context.Context, id uint64) (*model.Experience, error) {
    x, err := scanExperience(r.db.QueryRowContext(ctx,
        "SELECT "+experienceColumns+" FROM experiences WHERE id = ? AND is_active = 1", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return x, err
}

func scanExperience(row rowScanner) (*model.Experience, error) {
    var (
        x                              model.Experience
        includes, requirements, images []byte
        slots, highlights              []byte
        guide                          sql.NullInt64
    )
    err := row.Scan(
        &x.ID, &x.Name, &x.Description, &x.ShortDescription, &x.Price, &x.Duration.Value,
        &x.Duration.Unit, &x.Category, &x.Location, &x.MeetingPoint, &includes, &requirements, &images,
        &x.MaxParticipants, &slots, &guide, &x.Rating.Average, &x.Rating.Count, &x.IsActive,
        &highlights, &x.CreatedAt, &x.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    targets := []struct {
        raw []byte
        dst any
    }{
        {includes, &x.Includes}, {requirements, &x.Requirements}, {images, &x.Images},
        {slots, &x.AvailableSlots}, {highlights, &x.Highlights},
    }
    for _, t := range targets {
        if len(t.raw) == 0 {
            continue
        }
        if err := json.Unmarshal(t.raw, t.dst); err != nil {
            return nil, fmt.Errorf("unmarshal experience: %w", err)
        }
    }
    x.Includes = nonNil(x.Includes)
    x.Requirements = nonNil(x.Requirements)
    x.Images = nonNil(x.Images)
    x.AvailableSlots = nonNil(x.AvailableSlots)
    x.Highlights = nonNil(x.Highlights)
    if guide.Valid {
        id := uint64(guide.Int64)
        x.GuideID = &id
    }
    return &x, nil
}
