// Package repository defines the store contracts the handlers depend on.
// Postgres backs the real deployment; the in-memory store backs the tests.
package repository

import (
	"context"
	"errors"

	"taskboard/internal/models"
	"taskboard/internal/policy"
	"taskboard/internal/query"
)

var (
	// ErrNotFound is returned when a record does not exist. Callers report
	// visibility-scope misses the same way so existence never leaks.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique-constraint violation.
	ErrDuplicate = errors.New("record already exists")
	// ErrStatusConflict is returned when a compare-and-set status write finds
	// the task no longer in the status the transition started from.
	ErrStatusConflict = errors.New("task status changed concurrently")
)

// TaskFilter is a scoped, filtered, paginated task listing request. Scope is
// applied before everything else and is not bypassable by the other fields.
type TaskFilter struct {
	Scope    policy.TaskScope
	Status   *models.Status
	Search   string
	Sort     query.Sort
	Page     int
	PageSize int
}

// UserFilter is a filtered, paginated user listing request.
type UserFilter struct {
	Role          *models.Role
	AssignedAdmin *int
	Search        string
	Page          int
	PageSize      int
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int, error)
	UpdateUser(ctx context.Context, user models.User) error
	// DeleteUserCascade removes the user and every task referencing it as
	// creator or assignee, all or nothing.
	DeleteUserCascade(ctx context.Context, id int) error
	CountUsers(ctx context.Context, role models.Role, assignedAdmin *int) (int, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int) (models.Task, error)
	// ListTasks returns one page plus the total match count after scope,
	// filter and search but before pagination.
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, int, error)
	UpdateTask(ctx context.Context, task models.Task) error
	// TransitionTask persists task's status, completion report and worked
	// hours conditioned on the row still being in from; ErrStatusConflict
	// when a concurrent transition won the race.
	TransitionTask(ctx context.Context, task models.Task, from models.Status) error
	DeleteTask(ctx context.Context, id int) error
	CountTasks(ctx context.Context, createdBy *int, status *models.Status) (int, error)
}
