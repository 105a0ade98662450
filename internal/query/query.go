// Package query holds the pure pieces of the listing layer: the sort key
// allow-list, free-text search matching and page clamping. Both store
// implementations build on these so the permissive behavior (unknown values
// fall back to defaults instead of erroring) is identical everywhere.
package query

import (
	"strings"

	"taskboard/internal/models"
)

// Page sizes are fixed per listing surface.
const (
	UserPageSize  = 6
	AdminPageSize = 10
)

// Sort is a normalized, allow-listed ordering.
type Sort struct {
	Key  string
	Desc bool
}

// DefaultSort is created_at descending, the default ordering of every task
// listing.
var DefaultSort = Sort{Key: "created_at", Desc: true}

var allowedSortKeys = map[string]bool{
	"title":      true,
	"due_date":   true,
	"status":     true,
	"created_at": true,
}

// ParseSort normalizes a caller-supplied sort parameter. A leading "-" means
// descending. Anything outside the allow-list leaves the default ordering in
// effect.
func ParseSort(raw string) Sort {
	key := strings.TrimSpace(raw)
	desc := false
	if strings.HasPrefix(key, "-") {
		desc = true
		key = key[1:]
	}
	if !allowedSortKeys[key] {
		return DefaultSort
	}
	return Sort{Key: key, Desc: desc}
}

// ParseStatusFilter returns the status filter for raw, or nil when raw is
// empty or not a declared status value. Invalid values are ignored rather
// than errored.
func ParseStatusFilter(raw string) *models.Status {
	if raw == "" {
		return nil
	}
	status, ok := models.ParseStatus(raw)
	if !ok {
		return nil
	}
	return &status
}

// MatchesTask reports whether task matches the free-text search, a
// case-insensitive substring test OR'ed over title and description. An empty
// search matches everything.
func MatchesTask(task models.Task, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(task.Title), needle) ||
		strings.Contains(strings.ToLower(task.Description), needle)
}

// MatchesUser reports whether user matches the free-text search over
// username, first name, last name and email.
func MatchesUser(user models.User, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(user.Username), needle) ||
		strings.Contains(strings.ToLower(user.FirstName), needle) ||
		strings.Contains(strings.ToLower(user.LastName), needle) ||
		strings.Contains(strings.ToLower(user.Email), needle)
}

// Less orders a before b under s. Ties fall back to created_at descending and
// finally the task ID, making the order total so page boundaries never jitter
// between calls even when timestamps collide.
func Less(a, b models.Task, s Sort) bool {
	var cmp int
	switch s.Key {
	case "title":
		cmp = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "due_date":
		switch {
		case a.DueDate.Before(b.DueDate):
			cmp = -1
		case a.DueDate.After(b.DueDate):
			cmp = 1
		}
	case "status":
		cmp = strings.Compare(string(a.Status), string(b.Status))
	default: // created_at
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			cmp = -1
		case a.CreatedAt.After(b.CreatedAt):
			cmp = 1
		}
	}
	if cmp != 0 {
		if s.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	if s.Key != "created_at" {
		switch {
		case a.CreatedAt.After(b.CreatedAt):
			return true
		case a.CreatedAt.Before(b.CreatedAt):
			return false
		}
	}
	return a.ID > b.ID
}

// ClampPage returns the effective page for a collection of total items:
// pages start at 1 and a request beyond range lands on the last valid page,
// never an error.
func ClampPage(page, pageSize, total int) int {
	if page < 1 {
		return 1
	}
	last := (total + pageSize - 1) / pageSize
	if last < 1 {
		last = 1
	}
	if page > last {
		return last
	}
	return page
}

// PageBounds converts a clamped page into slice offsets over total items.
func PageBounds(page, pageSize, total int) (lo, hi int) {
	page = ClampPage(page, pageSize, total)
	lo = (page - 1) * pageSize
	hi = lo + pageSize
	if hi > total {
		hi = total
	}
	if lo > total {
		lo = total
	}
	return lo, hi
}

// TotalPages reports how many pages a collection spans, at least 1.
func TotalPages(total, pageSize int) int {
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}
