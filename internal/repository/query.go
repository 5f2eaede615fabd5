package repository

import "strings"

// Page defaults shared by the list endpoints.
const (
    DefaultPage  = 1
    DefaultLimit = 12
    MaxLimit     = 100
)

// NormalizePage clamps page and limit to the list defaults and returns
// them with the row offset.
func NormalizePage(page, limit int) (int, int, int) {
    if page < 1 {
        page = DefaultPage
    }
    if limit < 1 {
        limit = DefaultLimit
    }
    if limit > MaxLimit {
        limit = MaxLimit
    }
    return page, limit, (page - 1) * limit
}

// buildOrder turns a comma separated sort expression such as
// "price,-createdAt" into an ORDER BY clause.  Only keys present in
// allowed are used; a leading '-' sorts descending.  def is returned when
// nothing usable remains.  The primary key is always appended so paging is
// stable.
func buildOrder(sort string, allowed map[string]string, def string, tie string) string {
    var parts []string
    seen := map[string]bool{}
    for _, raw := range strings.Split(sort, ",") {
        key := strings.TrimSpace(raw)
        dir := "ASC"
        if strings.HasPrefix(key, "-") {
            dir = "DESC"
            key = strings.TrimPrefix(key, "-")
        } else {
            key = strings.TrimPrefix(key, "+")
        }
        col, ok := allowed[key]
        if !ok || seen[col] {
            continue
        }
        seen[col] = true
        parts = append(parts, col+" "+dir)
    }
    if len(parts) == 0 {
        parts = []string{def}
    }
    return " ORDER BY " + strings.Join(parts, ", ") + ", " + tie
}

// likePattern lower-cases s and escapes LIKE wildcards.
func likePattern(s string) string {
    s = strings.ToLower(strings.TrimSpace(s))
    s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
    return "%" + s + "%"
}
