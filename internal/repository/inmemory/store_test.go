package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
	"taskboard/internal/policy"
	"taskboard/internal/query"
	"taskboard/internal/repository"
)

func intPtr(v int) *int                        { return &v }
func statusPtr(s models.Status) *models.Status { return &s }

func seedUser(t *testing.T, s *Store, username string, role models.Role, assignedAdmin *int) models.User {
	t.Helper()
	user := models.User{
		Username:      username,
		Email:         username + "@example.com",
		Password:      "hash",
		Role:          role,
		Active:        true,
		AssignedAdmin: assignedAdmin,
	}
	require.NoError(t, s.CreateUser(context.Background(), &user))
	return user
}

func seedTask(t *testing.T, s *Store, title string, assignedTo, createdBy int) models.Task {
	t.Helper()
	task := models.Task{
		Title:       title,
		Description: "desc",
		AssignedTo:  assignedTo,
		CreatedBy:   createdBy,
		Status:      models.StatusPending,
	}
	require.NoError(t, s.CreateTask(context.Background(), &task))
	return task
}

func TestCreateUserDuplicate(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "jdoe", models.RoleUser, nil)

	dup := models.User{Username: "jdoe", Email: "other@example.com"}
	assert.ErrorIs(t, s.CreateUser(context.Background(), &dup), repository.ErrDuplicate)
}

func TestListTasksScopeAndSearch(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	admin := seedUser(t, s, "alice", models.RoleAdmin, nil)
	other := seedUser(t, s, "bob", models.RoleAdmin, nil)
	worker := seedUser(t, s, "carol", models.RoleUser, intPtr(admin.ID))

	seedTask(t, s, "Deploy billing", worker.ID, admin.ID)
	seedTask(t, s, "Patch gateway", worker.ID, admin.ID)
	seedTask(t, s, "Foreign task", worker.ID, other.ID)

	tasks, total, err := s.ListTasks(ctx, repository.TaskFilter{
		Scope: policy.TaskScope{CreatedBy: &admin.ID},
		Sort:  query.DefaultSort,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, task := range tasks {
		assert.Equal(t, admin.ID, task.CreatedBy)
		assert.Equal(t, "carol", task.AssignedToName)
		assert.Equal(t, "alice", task.CreatedByName)
	}

	_, total, err = s.ListTasks(ctx, repository.TaskFilter{
		Scope:  policy.TaskScope{CreatedBy: &admin.ID},
		Search: "billing",
		Sort:   query.DefaultSort,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestListTasksPaginationClamping(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	admin := seedUser(t, s, "alice", models.RoleAdmin, nil)
	worker := seedUser(t, s, "carol", models.RoleUser, intPtr(admin.ID))
	for i := 0; i < 7; i++ {
		seedTask(t, s, "Task", worker.ID, admin.ID)
	}

	tasks, total, err := s.ListTasks(ctx, repository.TaskFilter{
		Scope:    policy.TaskScope{AssignedTo: &worker.ID},
		Sort:     query.DefaultSort,
		Page:     99,
		PageSize: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, tasks, 1, "page beyond range returns the last valid page")
}

func TestTransitionTaskCAS(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	admin := seedUser(t, s, "alice", models.RoleAdmin, nil)
	worker := seedUser(t, s, "carol", models.RoleUser, intPtr(admin.ID))
	task := seedTask(t, s, "Race me", worker.ID, admin.ID)

	task.Status = models.StatusInProgress
	require.NoError(t, s.TransitionTask(ctx, task, models.StatusPending))

	// A second writer that still holds the pending snapshot loses the race.
	stale := task
	stale.Status = models.StatusCompleted
	err := s.TransitionTask(ctx, stale, models.StatusPending)
	assert.ErrorIs(t, err, repository.ErrStatusConflict)

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestDeleteUserCascadeScope(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	adminA := seedUser(t, s, "alice", models.RoleAdmin, nil)
	adminB := seedUser(t, s, "bob", models.RoleAdmin, nil)
	workerA := seedUser(t, s, "carol", models.RoleUser, intPtr(adminA.ID))
	workerB := seedUser(t, s, "dave", models.RoleUser, intPtr(adminB.ID))

	assigned := seedTask(t, s, "Assigned to carol", workerA.ID, adminB.ID)
	created := seedTask(t, s, "Created by alice", workerB.ID, adminA.ID)
	unrelated := seedTask(t, s, "Unrelated", workerB.ID, adminB.ID)

	// Deleting alice removes tasks she created; carol's assigned task from
	// adminB survives because alice is neither creator nor assignee.
	require.NoError(t, s.DeleteUserCascade(ctx, adminA.ID))

	_, err := s.GetTask(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.GetTask(ctx, assigned.ID)
	assert.NoError(t, err)
	_, err = s.GetTask(ctx, unrelated.ID)
	assert.NoError(t, err)

	_, err = s.GetUser(ctx, adminA.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteUserCascadeClearsAssignment(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	adminA := seedUser(t, s, "alice", models.RoleAdmin, nil)
	adminB := seedUser(t, s, "bob", models.RoleAdmin, nil)
	workerA := seedUser(t, s, "carol", models.RoleUser, intPtr(adminA.ID))
	workerB := seedUser(t, s, "dave", models.RoleUser, intPtr(adminB.ID))

	require.NoError(t, s.DeleteUserCascade(ctx, adminA.ID))

	// Accounts that pointed at the deleted admin are unassigned, not left
	// referencing a gone record; other assignments are untouched.
	got, err := s.GetUser(ctx, workerA.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedAdmin)

	got, err = s.GetUser(ctx, workerB.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedAdmin)
	assert.Equal(t, adminB.ID, *got.AssignedAdmin)
}

func TestCountTasks(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	admin := seedUser(t, s, "alice", models.RoleAdmin, nil)
	worker := seedUser(t, s, "carol", models.RoleUser, intPtr(admin.ID))

	done := seedTask(t, s, "Done", worker.ID, admin.ID)
	seedTask(t, s, "Open", worker.ID, admin.ID)
	report := "All wrapped up"
	hours := 2.0
	done.Status = models.StatusCompleted
	done.CompletionReport = &report
	done.WorkedHours = &hours
	require.NoError(t, s.UpdateTask(ctx, done))

	total, err := s.CountTasks(ctx, &admin.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	completed, err := s.CountTasks(ctx, &admin.ID, statusPtr(models.StatusCompleted))
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
}
