package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/policy"
	"taskboard/pkg/logger"
)

// Dashboard serves role-scoped counts: everything for superadmins, own
// assigned users and own created tasks for admins.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageTasks(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	ctx := c.Context()
	completed := models.StatusCompleted
	data := fiber.Map{}

	if actor.Role.IsSuperAdmin() {
		userCount, err := h.users.CountUsers(ctx, models.RoleUser, nil)
		if err != nil {
			return dashboardErr(c, err)
		}
		adminCount, err := h.users.CountUsers(ctx, models.RoleAdmin, nil)
		if err != nil {
			return dashboardErr(c, err)
		}
		totalTasks, err := h.tasks.CountTasks(ctx, nil, nil)
		if err != nil {
			return dashboardErr(c, err)
		}
		completedTasks, err := h.tasks.CountTasks(ctx, nil, &completed)
		if err != nil {
			return dashboardErr(c, err)
		}
		data["user_count"] = userCount
		data["admin_count"] = adminCount
		data["total_tasks"] = totalTasks
		data["completed_tasks"] = completedTasks
	} else {
		userCount, err := h.users.CountUsers(ctx, models.RoleUser, &actor.ID)
		if err != nil {
			return dashboardErr(c, err)
		}
		totalTasks, err := h.tasks.CountTasks(ctx, &actor.ID, nil)
		if err != nil {
			return dashboardErr(c, err)
		}
		completedTasks, err := h.tasks.CountTasks(ctx, &actor.ID, &completed)
		if err != nil {
			return dashboardErr(c, err)
		}
		data["user_count"] = userCount
		data["total_tasks"] = totalTasks
		data["completed_tasks"] = completedTasks
	}

	return ok(c, "Dashboard fetched successfully", fiber.Map{"data": data})
}

func dashboardErr(c *fiber.Ctx, err error) error {
	logger.ErrorLogger.Error("Error fetching dashboard counts", zap.Error(err))
	return fail(c, fiber.StatusInternalServerError, "Error fetching dashboard")
}
