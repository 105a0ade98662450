// Package inmemory is a map-backed store used by the test suites. It applies
// exactly the same scoping, filtering and clamping rules as the Postgres
// store via the shared query helpers.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/query"
	"taskboard/internal/repository"
)

type Store struct {
	mtx        sync.RWMutex
	users      map[int]*models.User
	tasks      map[int]*models.Task
	nextUserID int
	nextTaskID int
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int]*models.User),
		tasks:      make(map[int]*models.Task),
		nextUserID: 1,
		nextTaskID: 1,
	}
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = s.nextUserID
	s.nextUserID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *Store) GetUser(_ context.Context, id int) (models.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return *user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return *user, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, filter repository.UserFilter) ([]models.User, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched := make([]models.User, 0)
	for _, user := range s.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.AssignedAdmin != nil &&
			(user.AssignedAdmin == nil || *user.AssignedAdmin != *filter.AssignedAdmin) {
			continue
		}
		if !query.MatchesUser(*user, filter.Search) {
			continue
		}
		matched = append(matched, *user)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Username < matched[j].Username
	})

	total := len(matched)
	if filter.PageSize <= 0 {
		return matched, total, nil
	}
	lo, hi := query.PageBounds(filter.Page, filter.PageSize, total)
	return matched[lo:hi], total, nil
}

func (s *Store) UpdateUser(_ context.Context, user models.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.users {
		if other.ID != user.ID && (other.Username == user.Username || other.Email == user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	s.users[user.ID] = &user
	return nil
}

func (s *Store) DeleteUserCascade(_ context.Context, id int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	for taskID, task := range s.tasks {
		if task.AssignedTo == id || task.CreatedBy == id {
			delete(s.tasks, taskID)
		}
	}
	// Mirrors the schema's ON DELETE SET NULL on assigned_admin.
	for _, user := range s.users {
		if user.AssignedAdmin != nil && *user.AssignedAdmin == id {
			user.AssignedAdmin = nil
		}
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CountUsers(_ context.Context, role models.Role, assignedAdmin *int) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	count := 0
	for _, user := range s.users {
		if user.Role != role {
			continue
		}
		if assignedAdmin != nil &&
			(user.AssignedAdmin == nil || *user.AssignedAdmin != *assignedAdmin) {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) CreateTask(_ context.Context, task *models.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	task.ID = s.nextTaskID
	s.nextTaskID++
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	clone := *task
	s.tasks[task.ID] = &clone
	s.resolveNames(task)
	return nil
}

func (s *Store) GetTask(_ context.Context, id int) (models.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, repository.ErrNotFound
	}
	out := *task
	s.resolveNames(&out)
	return out, nil
}

func (s *Store) ListTasks(_ context.Context, filter repository.TaskFilter) ([]models.Task, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	matched := make([]models.Task, 0)
	for _, task := range s.tasks {
		if filter.Scope.AssignedTo != nil && task.AssignedTo != *filter.Scope.AssignedTo {
			continue
		}
		if filter.Scope.CreatedBy != nil && task.CreatedBy != *filter.Scope.CreatedBy {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if !query.MatchesTask(*task, filter.Search) {
			continue
		}
		out := *task
		s.resolveNames(&out)
		matched = append(matched, out)
	}
	sort.Slice(matched, func(i, j int) bool {
		return query.Less(matched[i], matched[j], filter.Sort)
	})

	total := len(matched)
	if filter.PageSize <= 0 {
		return matched, total, nil
	}
	lo, hi := query.PageBounds(filter.Page, filter.PageSize, total)
	return matched[lo:hi], total, nil
}

func (s *Store) UpdateTask(_ context.Context, task models.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok {
		return repository.ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = &task
	return nil
}

func (s *Store) TransitionTask(_ context.Context, task models.Task, from models.Status) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != from {
		return repository.ErrStatusConflict
	}
	existing.Status = task.Status
	existing.CompletionReport = task.CompletionReport
	existing.WorkedHours = task.WorkedHours
	existing.UpdatedAt = task.UpdatedAt
	return nil
}

func (s *Store) DeleteTask(_ context.Context, id int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) CountTasks(_ context.Context, createdBy *int, status *models.Status) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	count := 0
	for _, task := range s.tasks {
		if createdBy != nil && task.CreatedBy != *createdBy {
			continue
		}
		if status != nil && task.Status != *status {
			continue
		}
		count++
	}
	return count, nil
}

// resolveNames fills the denormalized username fields; callers hold the lock.
func (s *Store) resolveNames(task *models.Task) {
	if user, ok := s.users[task.AssignedTo]; ok {
		task.AssignedToName = user.Username
	}
	if user, ok := s.users[task.CreatedBy]; ok {
		task.CreatedByName = user.Username
	}
}
