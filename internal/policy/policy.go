package policy

import (
	"taskboard/internal/models"
)

// Actor is the authenticated principal making a request. It is built once by
// the auth middleware and passed explicitly to every decision.
type Actor struct {
	ID       int
	Username string
	Role     models.Role
}

// Action is something an actor can attempt on a task.
type Action int

const (
	ActionViewTask Action = iota
	ActionEditTask
	ActionDeleteTask
	ActionViewReport
)

// CanAccessTask decides whether actor may perform action on task.
// Superadmins are unrestricted. Admins are scoped to tasks they created.
// Regular users may only view tasks assigned to them and never see reports
// through the report surface.
func CanAccessTask(actor Actor, action Action, task models.Task) bool {
	switch actor.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin:
		return task.CreatedBy == actor.ID
	case models.RoleUser:
		if action == ActionViewTask {
			return task.AssignedTo == actor.ID
		}
		return false
	default:
		return false
	}
}

// CanUpdateAssignedTask reports whether actor owns the assignee-facing update
// surface for task.
func CanUpdateAssignedTask(actor Actor, task models.Task) bool {
	return task.AssignedTo == actor.ID
}

// CanManageTasks reports whether actor may use the administrative task surface
// at all. Scoping of individual records is done by CanAccessTask and the list
// scope below.
func CanManageTasks(actor Actor) bool {
	return actor.Role.IsAdmin() || actor.Role.IsSuperAdmin()
}

// CanManageUsers reports whether actor may create, edit, delete or assign
// users. This is a superadmin-only capability.
func CanManageUsers(actor Actor) bool {
	return actor.Role.IsSuperAdmin()
}

// CanDeleteUser forbids deleting the actor's own account even for superadmins.
func CanDeleteUser(actor Actor, target models.User) bool {
	return actor.Role.IsSuperAdmin() && actor.ID != target.ID
}

// CanAssignTaskTo decides whether actor may create a task assigned to
// assignee. Only role=user accounts are assignable; admins are further
// restricted to their own users.
func CanAssignTaskTo(actor Actor, assignee models.User) bool {
	if !assignee.Role.IsUser() {
		return false
	}
	switch actor.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin:
		return assignee.AssignedAdmin != nil && *assignee.AssignedAdmin == actor.ID
	default:
		return false
	}
}

// TaskScope is the record-visibility filter a listing must apply before any
// caller-supplied filtering. Nil fields mean unrestricted.
type TaskScope struct {
	AssignedTo *int
	CreatedBy  *int
}

// TaskListScope returns the visibility scope of actor over the administrative
// task collection. The boolean is false when actor has no administrative
// visibility at all.
func TaskListScope(actor Actor) (TaskScope, bool) {
	switch actor.Role {
	case models.RoleSuperAdmin:
		return TaskScope{}, true
	case models.RoleAdmin:
		id := actor.ID
		return TaskScope{CreatedBy: &id}, true
	default:
		return TaskScope{}, false
	}
}

// AssignedScope returns the scope of the caller's own task list.
func AssignedScope(actor Actor) TaskScope {
	id := actor.ID
	return TaskScope{AssignedTo: &id}
}
