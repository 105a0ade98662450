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

const dueDateLayout = "2006-01-02"

// ListAdminTasks lists tasks in the caller's administrative scope: everything
// for superadmins, own created tasks for admins.
func (h *Handler) ListAdminTasks(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	scope, allowed := policy.TaskListScope(actor)
	if !allowed {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	page := c.QueryInt("page", 1)
	filter := repository.TaskFilter{
		Scope:    scope,
		Status:   query.ParseStatusFilter(c.Query("status")),
		Search:   c.Query("search"),
		Sort:     query.ParseSort(c.Query("sort")),
		Page:     page,
		PageSize: query.AdminPageSize,
	}
	tasks, total, err := h.tasks.ListTasks(c.Context(), filter)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching tasks", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error fetching tasks")
	}

	return ok(c, "Tasks fetched successfully", fiber.Map{
		"data": tasks,
		"meta": pageMeta(page, query.AdminPageSize, total),
	})
}

// CreateTask creates a task assigned to a user visible to the creator.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageTasks(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	type CreateTaskRequest struct {
		Title       string `json:"title" validate:"required,max=200"`
		Description string `json:"description" validate:"required"`
		AssignedTo  int    `json:"assigned_to" validate:"required"`
		DueDate     string `json:"due_date" validate:"required"`
		Status      string `json:"status"`
	}
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create task", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := h.validate.Struct(req); err != nil {
		return failField(c, "request", err.Error())
	}

	dueDate, err := time.Parse(dueDateLayout, req.DueDate)
	if err != nil {
		return failField(c, "due_date", "Due date must be in YYYY-MM-DD format")
	}

	status := models.StatusPending
	if req.Status != "" {
		parsed, valid := models.ParseStatus(req.Status)
		if !valid {
			return failField(c, "status", "Invalid status")
		}
		status = parsed
	}

	assignee, err := h.users.GetUser(c.Context(), req.AssignedTo)
	if err != nil {
		return failField(c, "assigned_to", "Assigned user not found")
	}
	if !policy.CanAssignTaskTo(actor, assignee) {
		logger.SecurityLogger.Warn("Task assignment outside creator's scope",
			zap.Int("user_id", actor.ID), zap.Int("assigned_to", req.AssignedTo))
		return failField(c, "assigned_to", "You cannot assign tasks to this user")
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  assignee.ID,
		CreatedBy:   actor.ID,
		DueDate:     dueDate,
		Status:      status,
	}
	if err := lifecycle.ValidateCompletion(task); err != nil {
		return failErr(c, err, "Task not found")
	}
	if err := h.tasks.CreateTask(c.Context(), &task); err != nil {
		logger.ErrorLogger.Error("Error creating task", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error creating task")
	}

	h.publish(events.Event{Type: events.TypeTaskCreated, TaskID: task.ID, Actor: actor.Username, At: time.Now()})
	logger.AuditLogger.Info("Task created",
		zap.Int("task_id", task.ID), zap.Int("created_by", actor.ID))
	return created(c, "Task created successfully", task)
}

// GetAdminTask fetches one task in the caller's scope.
func (h *Handler) GetAdminTask(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageTasks(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	if h.cache != nil {
		if task, hit := h.cache.GetTask(c.Context(), taskID); hit {
			if !policy.CanAccessTask(actor, policy.ActionViewTask, task) {
				return fail(c, fiber.StatusNotFound, "Task not found")
			}
			return ok(c, "Task found (from cache)", fiber.Map{"data": task})
		}
	}

	task, err := h.tasks.GetTask(c.Context(), taskID)
	if err != nil {
		return failErr(c, err, "Task not found")
	}
	if !policy.CanAccessTask(actor, policy.ActionViewTask, task) {
		return fail(c, fiber.StatusNotFound, "Task not found")
	}

	if h.cache != nil {
		h.cache.PutTask(c.Context(), task)
	}
	return ok(c, "Task found", fiber.Map{"data": task})
}

// UpdateAdminTask is the administrative edit: any field, including status
// directly, bypassing the transition graph. The completed-implies-report
// invariant still holds.
func (h *Handler) UpdateAdminTask(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageTasks(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	type EditTaskRequest struct {
		Title            *string  `json:"title"`
		Description      *string  `json:"description"`
		AssignedTo       *int     `json:"assigned_to"`
		DueDate          *string  `json:"due_date"`
		Status           *string  `json:"status"`
		CompletionReport *string  `json:"completion_report"`
		WorkedHours      *float64 `json:"worked_hours"`
	}
	var req EditTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in edit task", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}

	task, err := h.tasks.GetTask(c.Context(), taskID)
	if err != nil {
		return failErr(c, err, "Task not found")
	}
	if !policy.CanAccessTask(actor, policy.ActionEditTask, task) {
		return fail(c, fiber.StatusNotFound, "Task not found")
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse(dueDateLayout, *req.DueDate)
		if err != nil {
			return failField(c, "due_date", "Due date must be in YYYY-MM-DD format")
		}
		task.DueDate = dueDate
	}
	if req.Status != nil {
		status, valid := models.ParseStatus(*req.Status)
		if !valid {
			return failField(c, "status", "Invalid status")
		}
		task.Status = status
	}
	if req.CompletionReport != nil {
		task.CompletionReport = req.CompletionReport
	}
	if req.WorkedHours != nil {
		task.WorkedHours = req.WorkedHours
	}
	if req.AssignedTo != nil {
		assignee, err := h.users.GetUser(c.Context(), *req.AssignedTo)
		if err != nil {
			return failField(c, "assigned_to", "Assigned user not found")
		}
		if !policy.CanAssignTaskTo(actor, assignee) {
			return failField(c, "assigned_to", "You cannot assign tasks to this user")
		}
		task.AssignedTo = assignee.ID
		task.AssignedToName = assignee.Username
	}

	if err := lifecycle.ValidateCompletion(task); err != nil {
		return failErr(c, err, "Task not found")
	}
	if err := h.tasks.UpdateTask(c.Context(), task); err != nil {
		return failErr(c, err, "Task not found")
	}

	if h.cache != nil {
		h.cache.DropTask(c.Context(), task.ID)
	}
	h.publish(events.Event{Type: events.TypeTaskUpdated, TaskID: task.ID, Actor: actor.Username, At: time.Now()})
	logger.AuditLogger.Info("Task edited",
		zap.Int("task_id", task.ID), zap.Int("user_id", actor.ID))
	return ok(c, "Task updated successfully", fiber.Map{"data": task})
}

// DeleteAdminTask removes a task in the caller's scope.
func (h *Handler) DeleteAdminTask(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageTasks(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid task ID")
	}

	task, err := h.tasks.GetTask(c.Context(), taskID)
	if err != nil {
		return failErr(c, err, "Task not found")
	}
	if !policy.CanAccessTask(actor, policy.ActionDeleteTask, task) {
		logger.SecurityLogger.Warn("Delete attempt outside scope",
			zap.Int("user_id", actor.ID), zap.Int("task_id", taskID))
		return fail(c, fiber.StatusNotFound, "Task not found")
	}

	if err := h.tasks.DeleteTask(c.Context(), taskID); err != nil {
		return failErr(c, err, "Task not found")
	}

	if h.cache != nil {
		h.cache.DropTask(c.Context(), taskID)
	}
	h.publish(events.Event{Type: events.TypeTaskDeleted, TaskID: taskID, Actor: actor.Username, At: time.Now()})
	logger.AuditLogger.Info("Task deleted",
		zap.Int("task_id", taskID), zap.Int("user_id", actor.ID))
	return ok(c, "Task deleted successfully", nil)
}

// ListReports lists completed tasks in the caller's creator scope.
func (h *Handler) ListReports(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	scope, allowed := policy.TaskListScope(actor)
	if !allowed {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	completed := models.StatusCompleted
	page := c.QueryInt("page", 1)
	filter := repository.TaskFilter{
		Scope:    scope,
		Status:   &completed,
		Search:   c.Query("search"),
		Sort:     query.ParseSort(c.Query("sort")),
		Page:     page,
		PageSize: query.AdminPageSize,
	}
	tasks, total, err := h.tasks.ListTasks(c.Context(), filter)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching reports", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error fetching reports")
	}

	return ok(c, "Reports fetched successfully", fiber.Map{
		"data": tasks,
		"meta": pageMeta(page, query.AdminPageSize, total),
	})
}
