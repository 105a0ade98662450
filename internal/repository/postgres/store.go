// Package postgres backs the repository contracts with database/sql and
// lib/pq. Listing queries count first, clamp the requested page, then fetch
// one LIMIT/OFFSET window.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"taskboard/internal/models"
	"taskboard/internal/query"
	"taskboard/internal/repository"
)

// uniqueViolation is the pq error code for a unique-constraint breach.
const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, username, email, password, first_name, last_name, role, active, assigned_admin, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var user models.User
	var role string
	var assignedAdmin sql.NullInt64
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password,
		&user.FirstName, &user.LastName, &role, &user.Active,
		&assignedAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, repository.ErrNotFound
		}
		return models.User{}, err
	}
	user.Role = models.Role(role)
	if assignedAdmin.Valid {
		id := int(assignedAdmin.Int64)
		user.AssignedAdmin = &id
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password, first_name, last_name, role, active, assigned_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.Password, user.FirstName, user.LastName,
		string(user.Role), user.Active, nullableInt(user.AssignedAdmin),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.AssignedAdmin != nil {
		args = append(args, *filter.AssignedAdmin)
		where = append(where, fmt.Sprintf("assigned_admin = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(username ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)",
			n, n, n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlQuery := "SELECT " + userColumns + " FROM users" + clause + " ORDER BY username ASC"
	if filter.PageSize > 0 {
		page := query.ClampPage(filter.Page, filter.PageSize, total)
		sqlQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, user models.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $1, email = $2, password = $3, first_name = $4, last_name = $5,
			role = $6, active = $7, assigned_admin = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $9`,
		user.Username, user.Email, user.Password, user.FirstName, user.LastName,
		string(user.Role), user.Active, nullableInt(user.AssignedAdmin), user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}
	return checkAffected(res)
}

func (s *Store) DeleteUserCascade(ctx context.Context, id int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tasks WHERE assigned_to = $1 OR created_by = $1", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if err := checkAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) CountUsers(ctx context.Context, role models.Role, assignedAdmin *int) (int, error) {
	var total int
	var err error
	if assignedAdmin != nil {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE role = $1 AND assigned_admin = $2",
			string(role), *assignedAdmin).Scan(&total)
	} else {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE role = $1", string(role)).Scan(&total)
	}
	return total, err
}

const taskColumns = `t.id, t.title, t.description, t.assigned_to, a.username, t.created_by, c.username,
	t.due_date, t.status, t.completion_report, t.worked_hours, t.created_at, t.updated_at`

const taskJoins = ` FROM tasks t
	JOIN users a ON a.id = t.assigned_to
	JOIN users c ON c.id = t.created_by`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var task models.Task
	var status string
	var report sql.NullString
	var hours sql.NullFloat64
	err := row.Scan(&task.ID, &task.Title, &task.Description,
		&task.AssignedTo, &task.AssignedToName, &task.CreatedBy, &task.CreatedByName,
		&task.DueDate, &status, &report, &hours, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, repository.ErrNotFound
		}
		return models.Task{}, err
	}
	task.Status = models.Status(status)
	if report.Valid {
		task.CompletionReport = &report.String
	}
	if hours.Valid {
		task.WorkedHours = &hours.Float64
	}
	return task, nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	return s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (title, description, assigned_to, created_by, due_date, status, completion_report, worked_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		task.Title, task.Description, task.AssignedTo, task.CreatedBy, task.DueDate,
		string(task.Status), nullableString(task.CompletionReport), nullableFloat(task.WorkedHours),
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (s *Store) GetTask(ctx context.Context, id int) (models.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+taskJoins+" WHERE t.id = $1", id)
	return scanTask(row)
}

// sortColumns maps the normalized sort keys onto column expressions; the keys
// come from the allow-list so nothing caller-supplied reaches the SQL text.
var sortColumns = map[string]string{
	"title":      "LOWER(t.title)",
	"due_date":   "t.due_date",
	"status":     "t.status",
	"created_at": "t.created_at",
}

func orderClause(s query.Sort) string {
	col, ok := sortColumns[s.Key]
	if !ok {
		col, s.Desc = sortColumns[query.DefaultSort.Key], query.DefaultSort.Desc
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	clause := " ORDER BY " + col + " " + dir
	if s.Key != "created_at" {
		clause += ", t.created_at DESC"
	}
	return clause
}

func (s *Store) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if filter.Scope.AssignedTo != nil {
		args = append(args, *filter.Scope.AssignedTo)
		where = append(where, fmt.Sprintf("t.assigned_to = $%d", len(args)))
	}
	if filter.Scope.CreatedBy != nil {
		args = append(args, *filter.Scope.CreatedBy)
		where = append(where, fmt.Sprintf("t.created_by = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+taskJoins+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlQuery := "SELECT " + taskColumns + taskJoins + clause + orderClause(filter.Sort)
	if filter.PageSize > 0 {
		page := query.ClampPage(filter.Page, filter.PageSize, total)
		sqlQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	return tasks, total, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, task models.Task) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, assigned_to = $3, due_date = $4, status = $5,
			completion_report = $6, worked_hours = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $8`,
		task.Title, task.Description, task.AssignedTo, task.DueDate, string(task.Status),
		nullableString(task.CompletionReport), nullableFloat(task.WorkedHours), task.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *Store) TransitionTask(ctx context.Context, task models.Task, from models.Status) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, completion_report = $2, worked_hours = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = $5`,
		string(task.Status), nullableString(task.CompletionReport),
		nullableFloat(task.WorkedHours), task.ID, string(from))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Row gone or status moved under us; distinguish for the caller.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)", task.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return repository.ErrStatusConflict
		}
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *Store) CountTasks(ctx context.Context, createdBy *int, status *models.Status) (int, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if createdBy != nil {
		args = append(args, *createdBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if status != nil {
		args = append(args, string(*status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	sqlQuery := "SELECT COUNT(*) FROM tasks"
	if len(where) > 0 {
		sqlQuery += " WHERE " + strings.Join(where, " AND ")
	}
	var total int
	err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&total)
	return total, err
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
