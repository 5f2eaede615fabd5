package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "sort"
    "strings"
    "time"

    "github.com/iliyamo/kashiyatra-booking/internal/model"
)

// PackageRepo provides CRUD and search over the packages table.  List
// valued attributes are stored as JSON columns.
type PackageRepo struct {
    db *sql.DB
}

// NewPackageRepo returns a new PackageRepo bound to the given database.
func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

// PackageQuery holds the public listing filters, taken from the query
// string.  Unknown sort keys are ignored.
type PackageQuery struct {
    Search          string
    Category        string
    MinPrice        *float64
    MaxPrice        *float64
    Duration        int
    Sort            string
    Page            int
    Limit           int
    IncludeInactive bool
}

const packageColumns = `id, name, description, short_description, price, original_price,
    duration_days, duration_nights, categories, inclusions, exclusions, itinerary, images,
    highlights, difficulty, max_travelers, available_dates, is_active, rating_average,
    rating_count, created_by, created_at, updated_at`

var packageSortColumns = map[string]string{
    "price":     "price",
    "createdAt": "created_at",
    "name":      "name",
    "duration":  "duration_days",
    "rating":    "rating_average",
}

// buildPackageWhere translates a PackageQuery into a WHERE condition.
// Search matches name, description and categories case-insensitively.
func buildPackageWhere(q PackageQuery) (string, []any) {
    where := []string{}
    args := []any{}
    if !q.IncludeInactive {
        where = append(where, "is_active = 1")
    }
    if s := strings.TrimSpace(q.Search); s != "" {
        p := likePattern(s)
        where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(CAST(categories AS CHAR)) LIKE ?)")
        args = append(args, p, p, p)
    }
    if c := strings.TrimSpace(q.Category); c != "" {
        where = append(where, "JSON_CONTAINS(categories, JSON_QUOTE(?))")
        args = append(args, strings.ToLower(c))
    }
    if q.MinPrice != nil {
        where = append(where, "price >= ?")
        args = append(args, *q.MinPrice)
    }
    if q.MaxPrice != nil {
        where = append(where, "price <= ?")
        args = append(args, *q.MaxPrice)
    }
    if q.Duration > 0 {
        where = append(where, "duration_days = ?")
        args = append(args, q.Duration)
    }
    if len(where) == 0 {
        return "1=1", args
    }
    return strings.Join(where, " AND "), args
}

func buildPackageOrder(expr string) string {
    return buildOrder(expr, packageSortColumns, "created_at DESC", "id DESC")
}

// List returns one page of packages and the total number of matches.
func (r *PackageRepo) List(ctx context.Context, q PackageQuery) ([]model.Package, int64, error) {
    cond, args := buildPackageWhere(q)

    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM packages WHERE "+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    _, limit, offset := NormalizePage(q.Page, q.Limit)
    query := "SELECT " + packageColumns + " FROM packages WHERE " + cond + buildPackageOrder(q.Sort) + " LIMIT ? OFFSET ?"
    rows, err := r.db.QueryContext(ctx, query, append(append([]any{}, args...), limit, offset)...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := make([]model.Package, 0, limit)
    for rows.Next() {
        p, err := scanPackage(rows)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, *p)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// GetByID returns a package regardless of its active flag.
func (r *PackageRepo) GetByID(ctx context.Context, id uint64) (*model.Package, error) {
    p, err := scanPackage(r.db.QueryRowContext(ctx, "SELECT "+packageColumns+" FROM packages WHERE id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return p, err
}

// Create inserts p and sets its ID and timestamps.
func (r *PackageRepo) Create(ctx context.Context, p *model.Package) error {
    vals, err := packageValues(p)
    if err != nil {
        return err
    }
    now := time.Now().UTC()
    p.CreatedAt, p.UpdatedAt = now, now
    res, err := r.db.ExecContext(ctx, `INSERT INTO packages (name, description, short_description, price,
        original_price, duration_days, duration_nights, categories, inclusions, exclusions, itinerary,
        images, highlights, difficulty, max_travelers, available_dates, is_active, rating_average,
        rating_count, created_by, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        append(vals, p.CreatedBy, p.CreatedAt, p.UpdatedAt)...)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}

// Update overwrites the editable columns of p.  Rating and creator are not
// editable through this path.
func (r *PackageRepo) Update(ctx context.Context, p *model.Package) error {
    vals, err := packageValues(p)
    if err != nil {
        return err
    }
    p.UpdatedAt = time.Now().UTC()
    res, err := r.db.ExecContext(ctx, `UPDATE packages SET name = ?, description = ?, short_description = ?,
        price = ?, original_price = ?, duration_days = ?, duration_nights = ?, categories = ?, inclusions = ?,
        exclusions = ?, itinerary = ?, images = ?, highlights = ?, difficulty = ?, max_travelers = ?,
        available_dates = ?, is_active = ?, rating_average = ?, rating_count = ?, updated_at = ?
        WHERE id = ?`,
        append(vals, p.UpdatedAt, p.ID)...)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        if _, err := r.GetByID(ctx, p.ID); err != nil {
            return err
        }
    }
    return nil
}

// Delete deactivates a package.  Rows are kept because bookings refer to
// them.
func (r *PackageRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "UPDATE packages SET is_active = 0, updated_at = UTC_TIMESTAMP() WHERE id = ?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

// Categories returns the sorted set of categories used by active packages.
func (r *PackageRepo) Categories(ctx context.Context) ([]string, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT categories FROM packages WHERE is_active = 1")
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    seen := map[string]struct{}{}
    for rows.Next() {
        var raw []byte
        if err := rows.Scan(&raw); err != nil {
            return nil, err
        }
        var cats []string
        if err := json.Unmarshal(raw, &cats); err != nil {
            return nil, fmt.Errorf("unmarshal categories: %w", err)
        }
        for _, c := range cats {
            seen[c] = struct{}{}
        }
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    out := make([]string, 0, len(seen))
    for c := range seen {
        out = append(out, c)
    }
    sort.Strings(out)
    return out, nil
}

// packageValues returns the column values from name through rating_count.
func packageValues(p *model.Package) ([]any, error) {
    lists := []any{p.Categories, p.Inclusions, nonNil(p.Exclusions), nonNil(p.Itinerary),
        nonNil(p.Images), nonNil(p.Highlights), nonNil(p.AvailableDates)}
    enc := make([][]byte, len(lists))
    for i, v := range lists {
        b, err := json.Marshal(v)
        if err != nil {
            return nil, fmt.Errorf("marshal package lists: %w", err)
        }
        enc[i] = b
    }
    return []any{
        p.Name, p.Description, p.ShortDescription, p.Price, p.OriginalPrice,
        p.Duration.Days, p.Duration.Nights, enc[0], enc[1], enc[2], enc[3], enc[4], enc[5],
        p.Difficulty, p.MaxTravelers, enc[6], p.IsActive, p.Rating.Average, p.Rating.Count,
    }, nil
}

func scanPackage(row rowScanner) (*model.Package, error) {
    var (
        p                                         model.Package
        categories, inclusions, exclusions        []byte
        itinerary, images, highlights, availDates []byte
        createdBy                                 sql.NullInt64
    )
    err := row.Scan(
        &p.ID, &p.Name, &p.Description, &p.ShortDescription, &p.Price, &p.OriginalPrice,
        &p.Duration.Days, &p.Duration.Nights, &categories, &inclusions, &exclusions, &itinerary, &images,
        &highlights, &p.Difficulty, &p.MaxTravelers, &availDates, &p.IsActive, &p.Rating.Average,
        &p.Rating.Count, &createdBy, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    targets := []struct {
        raw []byte
        dst any
    }{
        {categories, &p.Categories}, {inclusions, &p.Inclusions}, {exclusions, &p.Exclusions},
        {itinerary, &p.Itinerary}, {images, &p.Images}, {highlights, &p.Highlights}, {availDates, &p.AvailableDates},
    }
    for _, t := range targets {
        if len(t.raw) == 0 {
            continue
        }
        if err := json.Unmarshal(t.raw, t.dst); err != nil {
            return nil, fmt.Errorf("unmarshal package: %w", err)
        }
    }
    p.CreatedBy = uint64(createdBy.Int64)
    return &p, nil
}
