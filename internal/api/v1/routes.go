package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/events"
	mw "taskboard/internal/middleware"
	"taskboard/internal/policy"
)

// RegisterRoutes wires the API surface. hub may be nil when the event feed is
// disabled.
func RegisterRoutes(app *fiber.App, h *handlers.Handler, auth fiber.Handler, hub *events.Hub) {
	api := app.Group("/api/v1")

	// Auth
	api.Post("/login", h.Login)
	api.Post("/refresh", h.Refresh)

	// User-facing task surface
	taskRoutes := api.Group("/tasks", auth)
	taskRoutes.Get("/", h.ListMyTasks)
	taskRoutes.Put("/:id", h.UpdateMyTask)
	taskRoutes.Get("/:id/report", h.GetTaskReport)

	// Administrative surface
	admin := api.Group("/admin", auth)
	admin.Get("/dashboard", h.Dashboard)

	admin.Get("/users", h.ListUsers)
	admin.Post("/users", h.CreateUser)
	admin.Get("/users/:id", h.GetUser)
	admin.Put("/users/:id", h.UpdateUser)
	admin.Delete("/users/:id", h.DeleteUser)
	admin.Post("/users/:id/assign/:adminID", h.AssignUserToAdmin)

	admin.Get("/tasks", h.ListAdminTasks)
	admin.Post("/tasks", h.CreateTask)
	admin.Get("/tasks/:id", h.GetAdminTask)
	admin.Put("/tasks/:id", h.UpdateAdminTask)
	admin.Delete("/tasks/:id", h.DeleteAdminTask)

	admin.Get("/reports", h.ListReports)

	// Task event feed for admin dashboards
	if hub != nil {
		admin.Get("/events", func(c *fiber.Ctx) error {
			actor := mw.ActorFrom(c)
			if !policy.CanManageTasks(actor) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"message": "Access denied",
					"success": false,
					"status":  fiber.StatusForbidden,
				})
			}
			if !websocket.IsWebSocketUpgrade(c) {
				return fiber.ErrUpgradeRequired
			}
			return c.Next()
		}, websocket.New(func(conn *websocket.Conn) {
			hub.Register(conn)
		}))
	}
}
