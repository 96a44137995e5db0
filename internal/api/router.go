package api

import (
	"github.com/gofiber/fiber/v2"

	"mapping-editor/internal/auth"
)

// RegisterRoutes mounts the editor API under /api. When authn is non-nil it
// runs before every route and file deletion additionally requires the admin
// role.
func RegisterRoutes(app *fiber.App, h *Handler, authn fiber.Handler) {
	api := app.Group("/api")
	deleteFile := []fiber.Handler{h.DeleteFile}
	if authn != nil {
		api.Use(authn)
		deleteFile = append([]fiber.Handler{auth.RequireRole(auth.RoleAdmin)}, deleteFile...)
	}

	api.Get("/sessions", h.ListSessions)
	api.Post("/sessions", h.OpenSession)
	api.Get("/sessions/:id", h.GetSession)
	api.Delete("/sessions/:id", h.CloseSession)
	api.Put("/sessions/:id/name", h.RenameMapping)

	api.Post("/sessions/:id/events", h.Dispatch)

	api.Get("/sessions/:id/fields", h.ListFields)
	api.Post("/sessions/:id/fields", h.AddField)
	api.Get("/sessions/:id/fields/:key", h.GetField)
	api.Delete("/sessions/:id/fields/:key", h.DeleteField)

	api.Get("/sessions/:id/export", h.Export)
	api.Post("/sessions/:id/save", h.Save)
	api.Get("/sessions/:id/journal", h.Journal)

	api.Post("/files/delete", deleteFile...)
}
