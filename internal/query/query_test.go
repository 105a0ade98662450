package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskboard/internal/models"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		raw  string
		want Sort
	}{
		{"title", Sort{Key: "title"}},
		{"-title", Sort{Key: "title", Desc: true}},
		{"due_date", Sort{Key: "due_date"}},
		{"-status", Sort{Key: "status", Desc: true}},
		{"created_at", Sort{Key: "created_at"}},
		{"", DefaultSort},
		{"garbage", DefaultSort},
		{"-garbage", DefaultSort},
		{"id", DefaultSort},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSort(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseStatusFilter(t *testing.T) {
	assert.Nil(t, ParseStatusFilter(""))
	assert.Nil(t, ParseStatusFilter("bogus"), "invalid values are ignored, not errored")

	got := ParseStatusFilter("in_progress")
	if assert.NotNil(t, got) {
		assert.Equal(t, models.StatusInProgress, *got)
	}
}

func TestMatchesTask(t *testing.T) {
	task := models.Task{Title: "Deploy Billing Service", Description: "roll out to staging first"}

	assert.True(t, MatchesTask(task, ""))
	assert.True(t, MatchesTask(task, "billing"))
	assert.True(t, MatchesTask(task, "STAGING"))
	assert.False(t, MatchesTask(task, "payroll"))
}

func TestMatchesUser(t *testing.T) {
	user := models.User{Username: "jdoe", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}

	assert.True(t, MatchesUser(user, "jdoe"))
	assert.True(t, MatchesUser(user, "jane"))
	assert.True(t, MatchesUser(user, "DOE"))
	assert.True(t, MatchesUser(user, "example.com"))
	assert.False(t, MatchesUser(user, "smith"))
}

func TestLess(t *testing.T) {
	old := models.Task{Title: "alpha", Status: models.StatusPending,
		DueDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	recent := models.Task{Title: "beta", Status: models.StatusCompleted,
		DueDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}

	assert.True(t, Less(recent, old, DefaultSort), "default is created_at descending")
	assert.False(t, Less(old, recent, DefaultSort))

	assert.True(t, Less(old, recent, Sort{Key: "title"}))
	assert.True(t, Less(recent, old, Sort{Key: "title", Desc: true}))
	assert.True(t, Less(old, recent, Sort{Key: "due_date"}))
	assert.True(t, Less(recent, old, Sort{Key: "status"}), "completed sorts before pending")
}

func TestLessIsTotalOnTies(t *testing.T) {
	when := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first := models.Task{ID: 1, Title: "same", Status: models.StatusPending, CreatedAt: when}
	second := models.Task{ID: 2, Title: "same", Status: models.StatusPending, CreatedAt: when}

	// Identical timestamps and sort fields still produce one fixed order
	// (newest ID first), so page boundaries cannot jitter between calls.
	for _, s := range []Sort{DefaultSort, {Key: "title"}, {Key: "status", Desc: true}} {
		assert.True(t, Less(second, first, s), "sort=%+v", s)
		assert.False(t, Less(first, second, s), "sort=%+v", s)
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 10, 25))
	assert.Equal(t, 1, ClampPage(-3, 10, 25))
	assert.Equal(t, 2, ClampPage(2, 10, 25))
	assert.Equal(t, 3, ClampPage(3, 10, 25))
	assert.Equal(t, 3, ClampPage(99, 10, 25), "beyond range lands on the last page")
	assert.Equal(t, 1, ClampPage(5, 10, 0), "empty collection still has page 1")
}

func TestPageBounds(t *testing.T) {
	lo, hi := PageBounds(1, 10, 25)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 10, hi)

	lo, hi = PageBounds(3, 10, 25)
	assert.Equal(t, 20, lo)
	assert.Equal(t, 25, hi)

	lo, hi = PageBounds(99, 10, 25)
	assert.Equal(t, 20, lo, "clamped to last page")
	assert.Equal(t, 25, hi)

	lo, hi = PageBounds(1, 10, 0)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 0, hi)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 5, TotalPages(25, 6))
}
