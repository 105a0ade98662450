package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/lifecycle"
	"taskboard/internal/query"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
)

func ok(c *fiber.Ctx, message string, extra fiber.Map) error {
	body := fiber.Map{
		"message": message,
		"success": true,
		"status":  fiber.StatusOK,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"success": true,
		"status":  fiber.StatusCreated,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": false,
		"status":  status,
	})
}

func failFields(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation error",
		"success": false,
		"status":  fiber.StatusBadRequest,
		"errors":  fields,
	})
}

func failField(c *fiber.Ctx, field, reason string) error {
	return failFields(c, map[string]string{field: reason})
}

// failErr maps domain and store errors onto the response taxonomy.
// notFoundMsg doubles as the message for visibility-scope misses so existence
// never leaks.
func failErr(c *fiber.Ctx, err error, notFoundMsg string) error {
	var verr *lifecycle.ValidationError
	if errors.As(err, &verr) {
		return failFields(c, verr.Fields)
	}
	var terr *lifecycle.InvalidTransitionError
	if errors.As(err, &terr) {
		return failField(c, "status", terr.Error())
	}
	switch {
	case errors.Is(err, lifecycle.ErrAlreadyCompleted):
		return fail(c, fiber.StatusBadRequest, "Task is already completed")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, fiber.StatusNotFound, notFoundMsg)
	case errors.Is(err, repository.ErrDuplicate):
		return fail(c, fiber.StatusConflict, "Username or email already exists")
	case errors.Is(err, repository.ErrStatusConflict):
		return fail(c, fiber.StatusConflict, "Task was changed by another request, please retry")
	default:
		logger.ErrorLogger.Error("Unhandled error", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// pageMeta describes one page of a listing.
func pageMeta(page, pageSize, total int) fiber.Map {
	return fiber.Map{
		"page":        query.ClampPage(page, pageSize, total),
		"page_size":   pageSize,
		"total":       total,
		"total_pages": query.TotalPages(total, pageSize),
	}
}
