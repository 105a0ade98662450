// Package lifecycle validates and applies task status transitions for the
// assignee-facing update surface. Administrative edits bypass the transition
// graph but still may not break the completed-implies-report invariant, which
// ValidateCompletion enforces for both paths.
package lifecycle

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"taskboard/internal/models"
)

// MinReportLen is the minimum length of a completion report on the
// assignee-facing surface.
const MinReportLen = 10

// ErrAlreadyCompleted rejects any assignee-facing edit of a completed task.
var ErrAlreadyCompleted = errors.New("task is already completed")

// ValidationError carries field-level detail for a rejected change.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+": "+reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// InvalidTransitionError rejects a status change outside the transition table.
type InvalidTransitionError struct {
	From, To models.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// Change is a partial assignee-facing update. Nil fields are left untouched.
type Change struct {
	Status           *models.Status
	CompletionReport *string
	WorkedHours      *float64
}

// Apply validates ch against the transition table and, on success, mutates
// task in place and refreshes UpdatedAt. The store write that persists the
// result must be conditioned on the status Apply started from.
func (c Change) Apply(task *models.Task, now time.Time) error {
	if task.Status == models.StatusCompleted {
		return ErrAlreadyCompleted
	}

	if c.Status == nil {
		if err := c.validateFields(); err != nil {
			return err
		}
		c.applyFields(task)
		task.UpdatedAt = now
		return nil
	}

	target := *c.Status
	if target == task.Status {
		return &InvalidTransitionError{From: task.Status, To: target}
	}

	switch target {
	case models.StatusPending, models.StatusInProgress:
		if err := c.validateFields(); err != nil {
			return err
		}
	case models.StatusCompleted:
		if err := c.validateCompletion(task); err != nil {
			return err
		}
	default:
		return &InvalidTransitionError{From: task.Status, To: target}
	}

	c.applyFields(task)
	task.Status = target
	task.UpdatedAt = now
	return nil
}

// validateFields checks report fields outside a completion transition.
func (c Change) validateFields() error {
	verr := newValidationError()
	if c.WorkedHours != nil && *c.WorkedHours <= 0 {
		verr.Fields["worked_hours"] = "Worked hours must be greater than zero"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// validateCompletion checks the preconditions for moving to completed, using
// values from the change when present and falling back to what the task
// already carries.
func (c Change) validateCompletion(task *models.Task) error {
	report := task.CompletionReport
	if c.CompletionReport != nil {
		report = c.CompletionReport
	}
	hours := task.WorkedHours
	if c.WorkedHours != nil {
		hours = c.WorkedHours
	}

	verr := newValidationError()
	if report == nil || strings.TrimSpace(*report) == "" {
		verr.Fields["completion_report"] = "Completion report is required when marking task as completed"
	} else if len(strings.TrimSpace(*report)) < MinReportLen {
		verr.Fields["completion_report"] = fmt.Sprintf("Completion report must be at least %d characters", MinReportLen)
	}
	if hours == nil {
		verr.Fields["worked_hours"] = "Worked hours is required when marking task as completed"
	} else if *hours <= 0 {
		verr.Fields["worked_hours"] = "Worked hours must be greater than zero"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (c Change) applyFields(task *models.Task) {
	if c.CompletionReport != nil {
		task.CompletionReport = c.CompletionReport
	}
	if c.WorkedHours != nil {
		rounded := math.Round(*c.WorkedHours*100) / 100
		task.WorkedHours = &rounded
	}
}

// ValidateCompletion guards the completed-implies-report invariant for
// administrative edits, which may set status directly. The report has no
// minimum length here; that rule belongs to the assignee surface only.
func ValidateCompletion(task models.Task) error {
	if task.Status != models.StatusCompleted {
		return nil
	}
	verr := newValidationError()
	if task.CompletionReport == nil || strings.TrimSpace(*task.CompletionReport) == "" {
		verr.Fields["completion_report"] = "Completion report is required when marking task as completed"
	}
	if task.WorkedHours == nil || *task.WorkedHours <= 0 {
		verr.Fields["worked_hours"] = "Worked hours must be a positive number"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
