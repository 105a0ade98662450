package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/lifecycle"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/policy"
	"taskboard/internal/query"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
)

// User management is a superadmin-only capability.

// ListUsers lists accounts, searchable over username, names and email.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageUsers(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	page := c.QueryInt("page", 1)
	filter := repository.UserFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: query.AdminPageSize,
	}
	if role, valid := models.ParseRole(c.Query("role")); valid {
		filter.Role = &role
	}
	users, total, err := h.users.ListUsers(c.Context(), filter)
	if err != nil {
		logger.ErrorLogger.Error("Error fetching users", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error fetching users")
	}

	return ok(c, "Users fetched successfully", fiber.Map{
		"data": users,
		"meta": pageMeta(page, query.AdminPageSize, total),
	})
}

// CreateUser creates an account. Users must reference an admin; admins and
// superadmins never carry an assignment.
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageUsers(actor) {
		logger.SecurityLogger.Warn("User creation denied",
			zap.Int("user_id", actor.ID), zap.String("role", string(actor.Role)))
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	type CreateUserRequest struct {
		Username      string `json:"username" validate:"required,excludesall=@?"`
		Email         string `json:"email" validate:"required,email"`
		Password      string `json:"password" validate:"required,min=6"`
		FirstName     string `json:"first_name"`
		LastName      string `json:"last_name"`
		Role          string `json:"role" validate:"required"`
		AssignedAdmin *int   `json:"assigned_admin"`
		Active        *bool  `json:"active"`
	}
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in create user", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := h.validate.Struct(req); err != nil {
		return failField(c, "request", err.Error())
	}

	role, valid := models.ParseRole(req.Role)
	if !valid {
		return failField(c, "role", "Invalid role")
	}

	assignedAdmin, err := h.resolveAssignedAdmin(c, role, req.AssignedAdmin)
	if err != nil {
		return failErr(c, err, "User not found")
	}

	hashed, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if hashErr != nil {
		logger.ErrorLogger.Error("Error hashing password", zap.Error(hashErr))
		return fail(c, fiber.StatusInternalServerError, "Error hashing password")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	user := models.User{
		Username:      req.Username,
		Email:         req.Email,
		Password:      string(hashed),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Role:          role,
		Active:        active,
		AssignedAdmin: assignedAdmin,
	}
	if err := h.users.CreateUser(c.Context(), &user); err != nil {
		return failErr(c, err, "User not found")
	}

	logger.AuditLogger.Info("User created",
		zap.Int("user_id", user.ID), zap.String("role", string(user.Role)),
		zap.Int("created_by", actor.ID))
	return created(c, "User created successfully", user)
}

// GetUser fetches one account.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageUsers(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	targetID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	if h.cache != nil {
		if user, hit := h.cache.GetUser(c.Context(), targetID); hit {
			return ok(c, "User found (from cache)", fiber.Map{"data": user})
		}
	}

	user, err := h.users.GetUser(c.Context(), targetID)
	if err != nil {
		return failErr(c, err, "User not found")
	}

	if h.cache != nil {
		h.cache.PutUser(c.Context(), user)
	}
	return ok(c, "User found", fiber.Map{"data": user})
}

// UpdateUser applies a partial edit to an account, re-validating the
// role/assignment invariant on the result.
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageUsers(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	targetID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	type EditUserRequest struct {
		Username      *string `json:"username"`
		Email         *string `json:"email" validate:"omitempty,email"`
		Password      *string `json:"password" validate:"omitempty,min=6"`
		FirstName     *string `json:"first_name"`
		LastName      *string `json:"last_name"`
		Role          *string `json:"role"`
		AssignedAdmin *int    `json:"assigned_admin"`
		Active        *bool   `json:"active"`
	}
	var req EditUserRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in edit user", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := h.validate.Struct(req); err != nil {
		return failField(c, "request", err.Error())
	}

	user, err := h.users.GetUser(c.Context(), targetID)
	if err != nil {
		return failErr(c, err, "User not found")
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			logger.ErrorLogger.Error("Error hashing password", zap.Error(hashErr))
			return fail(c, fiber.StatusInternalServerError, "Error hashing password")
		}
		user.Password = string(hashed)
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		role, valid := models.ParseRole(*req.Role)
		if !valid {
			return failField(c, "role", "Invalid role")
		}
		user.Role = role
	}
	if req.AssignedAdmin != nil {
		user.AssignedAdmin = req.AssignedAdmin
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	user.AssignedAdmin, err = h.resolveAssignedAdmin(c, user.Role, user.AssignedAdmin)
	if err != nil {
		return failErr(c, err, "User not found")
	}

	if err := h.users.UpdateUser(c.Context(), user); err != nil {
		return failErr(c, err, "User not found")
	}

	if h.cache != nil {
		h.cache.DropUser(c.Context(), user.ID)
	}
	logger.AuditLogger.Info("User updated",
		zap.Int("user_id", user.ID), zap.Int("updated_by", actor.ID))
	return ok(c, "User updated successfully", fiber.Map{"data": user})
}

// DeleteUser hard-deletes an account and every task it created or was
// assigned, atomically. Deleting your own account is rejected.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageUsers(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	targetID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	target, err := h.users.GetUser(c.Context(), targetID)
	if err != nil {
		return failErr(c, err, "User not found")
	}
	if !policy.CanDeleteUser(actor, target) {
		return fail(c, fiber.StatusBadRequest, "Cannot delete yourself")
	}

	h.dropCachedTasksOf(c, targetID)
	if err := h.users.DeleteUserCascade(c.Context(), targetID); err != nil {
		return failErr(c, err, "User not found")
	}

	if h.cache != nil {
		h.cache.DropUser(c.Context(), targetID)
	}
	logger.AuditLogger.Info("User deleted",
		zap.Int("user_id", targetID), zap.Int("deleted_by", actor.ID))
	return ok(c, "User deleted successfully", nil)
}

// AssignUserToAdmin points a user account at an admin.
func (h *Handler) AssignUserToAdmin(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	if !policy.CanManageUsers(actor) {
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	userID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	adminID, err := c.ParamsInt("adminID")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid admin ID")
	}

	user, err := h.users.GetUser(c.Context(), userID)
	if err != nil || !user.Role.IsUser() {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	admin, err := h.users.GetUser(c.Context(), adminID)
	if err != nil || !admin.Role.IsAdmin() {
		return fail(c, fiber.StatusNotFound, "Admin not found")
	}

	user.AssignedAdmin = &admin.ID
	if err := h.users.UpdateUser(c.Context(), user); err != nil {
		return failErr(c, err, "User not found")
	}

	if h.cache != nil {
		h.cache.DropUser(c.Context(), user.ID)
	}
	logger.AuditLogger.Info("User assigned to admin",
		zap.Int("user_id", user.ID), zap.Int("admin_id", admin.ID))
	return ok(c, "User assigned successfully", fiber.Map{"data": user})
}

// resolveAssignedAdmin enforces the role/assignment invariant: users need an
// admin, everyone else has the assignment cleared (as the original system
// does, silently). Violations come back as a ValidationError for failErr to
// map.
func (h *Handler) resolveAssignedAdmin(c *fiber.Ctx, role models.Role, assignedAdmin *int) (*int, error) {
	if !role.IsUser() {
		return nil, nil
	}
	if assignedAdmin == nil {
		return nil, assignmentError("Users must be assigned to an admin")
	}
	admin, err := h.users.GetUser(c.Context(), *assignedAdmin)
	if err != nil {
		return nil, assignmentError("Assigned admin not found")
	}
	if !admin.Role.IsAdmin() {
		return nil, assignmentError("Assigned admin must have the admin role")
	}
	return assignedAdmin, nil
}

func assignmentError(reason string) error {
	return &lifecycle.ValidationError{Fields: map[string]string{"assigned_admin": reason}}
}

// dropCachedTasksOf invalidates cached tasks referencing the user so a
// cascade delete cannot leave stale entries behind.
func (h *Handler) dropCachedTasksOf(c *fiber.Ctx, userID int) {
	if h.cache == nil {
		return
	}
	for _, scope := range []policy.TaskScope{{AssignedTo: &userID}, {CreatedBy: &userID}} {
		tasks, _, err := h.tasks.ListTasks(c.Context(), repository.TaskFilter{Scope: scope})
		if err != nil {
			continue
		}
		for _, task := range tasks {
			h.cache.DropTask(c.Context(), task.ID)
		}
	}
}
