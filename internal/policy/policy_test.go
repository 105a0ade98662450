package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskboard/internal/models"
)

func intPtr(v int) *int { return &v }

var (
	superadmin = Actor{ID: 1, Username: "root", Role: models.RoleSuperAdmin}
	adminA     = Actor{ID: 2, Username: "alice", Role: models.RoleAdmin}
	adminB     = Actor{ID: 3, Username: "bob", Role: models.RoleAdmin}
	worker     = Actor{ID: 4, Username: "carol", Role: models.RoleUser}
)

func TestCanAccessTask(t *testing.T) {
	task := models.Task{ID: 10, AssignedTo: worker.ID, CreatedBy: adminA.ID}

	tests := []struct {
		name   string
		actor  Actor
		action Action
		want   bool
	}{
		{"superadmin views anything", superadmin, ActionViewTask, true},
		{"superadmin reads any report", superadmin, ActionViewReport, true},
		{"creator admin views own task", adminA, ActionViewTask, true},
		{"creator admin edits own task", adminA, ActionEditTask, true},
		{"creator admin reads own report", adminA, ActionViewReport, true},
		{"other admin cannot view", adminB, ActionViewTask, false},
		{"other admin cannot read report", adminB, ActionViewReport, false},
		{"other admin cannot delete", adminB, ActionDeleteTask, false},
		{"assignee views own task", worker, ActionViewTask, true},
		{"assignee cannot edit via admin surface", worker, ActionEditTask, false},
		{"assignee cannot read via report surface", worker, ActionViewReport, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessTask(tt.actor, tt.action, task))
		})
	}
}

func TestCanAccessTaskForeignAssignee(t *testing.T) {
	foreign := models.Task{ID: 11, AssignedTo: 99, CreatedBy: adminA.ID}
	assert.False(t, CanAccessTask(worker, ActionViewTask, foreign))
}

func TestCanAssignTaskTo(t *testing.T) {
	ownUser := models.User{ID: 4, Role: models.RoleUser, AssignedAdmin: intPtr(adminA.ID)}
	otherUser := models.User{ID: 5, Role: models.RoleUser, AssignedAdmin: intPtr(adminB.ID)}
	unassigned := models.User{ID: 6, Role: models.RoleUser}
	someAdmin := models.User{ID: 7, Role: models.RoleAdmin}

	assert.True(t, CanAssignTaskTo(superadmin, ownUser))
	assert.True(t, CanAssignTaskTo(superadmin, unassigned))
	assert.False(t, CanAssignTaskTo(superadmin, someAdmin), "only role=user is assignable")

	assert.True(t, CanAssignTaskTo(adminA, ownUser))
	assert.False(t, CanAssignTaskTo(adminA, otherUser))
	assert.False(t, CanAssignTaskTo(adminA, unassigned))

	assert.False(t, CanAssignTaskTo(worker, ownUser))
}

func TestCanManageUsers(t *testing.T) {
	assert.True(t, CanManageUsers(superadmin))
	assert.False(t, CanManageUsers(adminA))
	assert.False(t, CanManageUsers(worker))
}

func TestCanDeleteUser(t *testing.T) {
	assert.False(t, CanDeleteUser(superadmin, models.User{ID: superadmin.ID}), "own account is protected")
	assert.True(t, CanDeleteUser(superadmin, models.User{ID: worker.ID}))
	assert.False(t, CanDeleteUser(adminA, models.User{ID: worker.ID}))
}

func TestTaskListScope(t *testing.T) {
	scope, allowed := TaskListScope(superadmin)
	assert.True(t, allowed)
	assert.Nil(t, scope.CreatedBy)
	assert.Nil(t, scope.AssignedTo)

	scope, allowed = TaskListScope(adminA)
	assert.True(t, allowed)
	if assert.NotNil(t, scope.CreatedBy) {
		assert.Equal(t, adminA.ID, *scope.CreatedBy)
	}

	_, allowed = TaskListScope(worker)
	assert.False(t, allowed)
}

func TestAssignedScope(t *testing.T) {
	scope := AssignedScope(worker)
	if assert.NotNil(t, scope.AssignedTo) {
		assert.Equal(t, worker.ID, *scope.AssignedTo)
	}
}
