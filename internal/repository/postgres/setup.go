package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/models"
	"taskboard/internal/repository"
)

// CreateTablesIfNotExist prepares the schema on startup.
func CreateTablesIfNotExist(db *sql.DB) error {
	query := `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(255) NOT NULL UNIQUE,
    email VARCHAR(255) NOT NULL UNIQUE,
    password VARCHAR(255) NOT NULL,
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    assigned_admin INT REFERENCES users (id) ON DELETE SET NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
    id SERIAL PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    assigned_to INT NOT NULL REFERENCES users (id),
    created_by INT NOT NULL REFERENCES users (id),
    due_date DATE NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    completion_report TEXT,
    worked_hours NUMERIC(5,2),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks (assigned_to);
CREATE INDEX IF NOT EXISTS idx_tasks_created_by ON tasks (created_by);
`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// EnsureSuperAdmin creates the bootstrap superadmin account when no account
// with that username exists yet.
func EnsureSuperAdmin(ctx context.Context, store *Store, username, email, password string) error {
	_, err := store.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing bootstrap password: %w", err)
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleSuperAdmin,
		Active:   true,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("creating superadmin: %w", err)
	}
	return nil
}
