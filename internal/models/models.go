package models

import (
	"time"
)

// Role is the access tier of an account.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole returns the Role for s, or false when s is not a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

func (r Role) IsUser() bool       { return r == RoleUser }
func (r Role) IsAdmin() bool      { return r == RoleAdmin }
func (r Role) IsSuperAdmin() bool { return r == RoleSuperAdmin }

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus returns the Status for s, or false when s is not a known status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(s), true
	default:
		return "", false
	}
}

type User struct {
	ID            int       `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Role          Role      `json:"role"`
	Active        bool      `json:"active"`
	AssignedAdmin *int      `json:"assigned_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Task struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	AssignedTo       int       `json:"assigned_to"`
	AssignedToName   string    `json:"assigned_to_name,omitempty"`
	CreatedBy        int       `json:"created_by"`
	CreatedByName    string    `json:"created_by_name,omitempty"`
	DueDate          time.Time `json:"due_date"`
	Status           Status    `json:"status"`
	CompletionReport *string   `json:"completion_report"`
	WorkedHours      *float64  `json:"worked_hours"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
