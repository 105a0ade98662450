package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/events"
	"taskboard/internal/lifecycle"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/policy"
	"taskboard/internal/query"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
)

// ListMyTasks returns the caller's assigned tasks, filtered, searched,
// sorted and paginated per their query parameters.
func (h *Handler) ListMyTasks(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)

	page := c.QueryInt("page", 1)
	filter := repository.TaskFilter{
		Scope:    policy.AssignedScope(actor),
		Status:   query.ParseStatusFilter(c.Query("status")),
		Search:   c.Query("search"),
		Sort:     query.ParseSort(c.Query("sort")),
		Page:     page,
		PageSize: query.UserPageSize,
	}
	tasks, total, err := h.tasks.ListTasks(c.Context(), filter)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error fetching tasks")
	}

	return ok(c, "Tasks fetched successfully", fiber.Map{
		"data": tasks,
		"meta": pageMeta(page, query.UserPageSize, total),
	})
}

// UpdateMyTask is the assignee-facing partial update: status along the
// transition graph plus completion report fields.
func (h *Handler) UpdateMyTask(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	type UpdateTaskRequest struct {
		Status           *string  `json:"status"`
		CompletionReport *string  `json:"completion_report"`
		WorkedHours      *float64 `json:"worked_hours"`
	}
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in update task", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}

	task, err := h.tasks.GetTask(c.Context(), taskID)
	if err != nil {
		return failErr(c, err, "Task not found")
	}
	// A task outside the caller's scope reads as absent.
	if !policy.CanUpdateAssignedTask(actor, task) {
		logger.SecurityLogger.Warn("Update attempt on foreign task",
			zap.Int("user_id", actor.ID), zap.Int("task_id", taskID))
		return fail(c, fiber.StatusNotFound, "Task not found")
	}

	change := lifecycle.Change{
		CompletionReport: req.CompletionReport,
		WorkedHours:      req.WorkedHours,
	}
	if req.Status != nil {
		status, ok := models.ParseStatus(*req.Status)
		if !ok {
			return failField(c, "status", "Invalid status")
		}
		change.Status = &status
	}

	from := task.Status
	if err := change.Apply(&task, time.Now()); err != nil {
		return failErr(c, err, "Task not found")
	}

	if change.Status != nil {
		err = h.tasks.TransitionTask(c.Context(), task, from)
	} else {
		err = h.tasks.UpdateTask(c.Context(), task)
	}
	if err != nil {
		return failErr(c, err, "Task not found")
	}

	if h.cache != nil {
		h.cache.DropTask(c.Context(), task.ID)
	}
	eventType := events.TypeTaskUpdated
	if task.Status == models.StatusCompleted {
		eventType = events.TypeTaskCompleted
	}
	h.publish(events.Event{Type: eventType, TaskID: task.ID, Actor: actor.Username, At: time.Now()})

	logger.AuditLogger.Info("Task updated by assignee",
		zap.Int("task_id", task.ID), zap.Int("user_id", actor.ID),
		zap.String("status", string(task.Status)))
	return ok(c, "Task updated successfully", fiber.Map{"data": task})
}

// GetTaskReport serves a completed task's report. Ownership is checked before
// completion status so an unauthorized caller cannot learn the task's state.
func (h *Handler) GetTaskReport(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	task, err := h.tasks.GetTask(c.Context(), taskID)
	if err != nil {
		return failErr(c, err, "Task not found")
	}

	if !policy.CanAccessTask(actor, policy.ActionViewReport, task) {
		logger.SecurityLogger.Warn("Report access denied",
			zap.Int("user_id", actor.ID), zap.String("role", string(actor.Role)),
			zap.Int("task_id", taskID))
		return fail(c, fiber.StatusForbidden, "You do not have permission to view this task report")
	}
	if task.Status != models.StatusCompleted {
		return fail(c, fiber.StatusBadRequest, "Task report is only available for completed tasks")
	}

	assignee, err := h.users.GetUser(c.Context(), task.AssignedTo)
	if err != nil {
		return failErr(c, err, "Task not found")
	}

	return ok(c, "Report fetched successfully", fiber.Map{
		"data": fiber.Map{
			"id":                task.ID,
			"title":             task.Title,
			"description":       task.Description,
			"assigned_to_name":  assignee.Username,
			"assigned_to_email": assignee.Email,
			"due_date":          task.DueDate,
			"status":            task.Status,
			"completion_report": task.CompletionReport,
			"worked_hours":      task.WorkedHours,
			"created_at":        task.CreatedAt,
			"updated_at":        task.UpdatedAt,
		},
	})
}
