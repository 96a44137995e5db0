// Package api exposes editor sessions over HTTP. Every editor interaction is
// posted as an event and routed through the session's delegator.
package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"

	"mapping-editor/internal/apperr"
	"mapping-editor/internal/collab"
	"mapping-editor/internal/editor"
	"mapping-editor/internal/journal"
	"mapping-editor/internal/session"
	"mapping-editor/internal/store"
)

// FileDeleter removes stored completion or mapping files.
type FileDeleter interface {
	DeleteFile(ctx context.Context, ref collab.FileRef) error
}

type Handler struct {
	sessions *session.Manager
	files    FileDeleter
	store    *store.Store
}

// NewHandler creates a Handler. s may be nil when the journal is disabled.
func NewHandler(m *session.Manager, files FileDeleter, s *store.Store) *Handler {
	return &Handler{sessions: m, files: files, store: s}
}

func (h *Handler) session(c *fiber.Ctx) (*session.Session, error) {
	return h.sessions.Get(c.Params("id"))
}

func fieldKey(c *fiber.Ctx) string {
	raw := c.Params("key")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}

// ListSessions handles GET /api/sessions
func (h *Handler) ListSessions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.sessions.List()})
}

// OpenSession handles POST /api/sessions
func (h *Handler) OpenSession(c *fiber.Ctx) error {
	var req session.OpenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidPayload("Invalid JSON body")
	}
	s, err := h.sessions.Create(req)
	if err != nil {
		return err
	}
	page, err := s.Editor.Render()
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": page})
}

// GetSession handles GET /api/sessions/:id
func (h *Handler) GetSession(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	page, err := s.Editor.Render()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": page})
}

// CloseSession handles DELETE /api/sessions/:id
func (h *Handler) CloseSession(c *fiber.Ctx) error {
	if err := h.sessions.Close(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RenameMapping handles PUT /api/sessions/:id/name
func (h *Handler) RenameMapping(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var body struct {
		MappingName string `json:"mapping_name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.InvalidPayload("Invalid JSON body")
	}
	if body.MappingName == "" {
		return apperr.Unprocessable("VALIDATION_FAILED", "mapping_name is required")
	}
	s.Editor.SetMappingName(body.MappingName)
	return c.JSON(fiber.Map{"data": fiber.Map{"mapping_name": body.MappingName}})
}

// Dispatch handles POST /api/sessions/:id/events
func (h *Handler) Dispatch(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var ev editor.Event
	if err := c.BodyParser(&ev); err != nil {
		return apperr.InvalidPayload("Invalid JSON body")
	}
	if ev.Type == "" || ev.Action == "" {
		return apperr.Unprocessable("VALIDATION_FAILED", "type and action are required")
	}
	result, err := s.Editor.Dispatch(c.UserContext(), ev)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// ListFields handles GET /api/sessions/:id/fields?filter=
func (h *Handler) ListFields(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	fields, err := s.Editor.Filter(c.Query("filter"))
	if err != nil {
		return err
	}
	if fields == nil {
		fields = []editor.FieldView{}
	}
	editing, _ := s.Editor.Editing()
	return c.JSON(fiber.Map{
		"data": fields,
		"meta": fiber.Map{"total": len(fields), "editing": editing},
	})
}

// AddField handles POST /api/sessions/:id/fields
func (h *Handler) AddField(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	var req editor.AddRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.InvalidPayload("Invalid JSON body")
	}
	v, err := s.Editor.AddField(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": v})
}

// GetField handles GET /api/sessions/:id/fields/:key
func (h *Handler) GetField(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	key := fieldKey(c)
	v, ok := s.Editor.Lookup(key)
	if !ok {
		return apperr.NotFound("field", key)
	}
	return c.JSON(fiber.Map{"data": v})
}

// DeleteField handles DELETE /api/sessions/:id/fields/:key
func (h *Handler) DeleteField(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	deleted, err := s.Editor.DeleteField(fieldKey(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": deleted}})
}

// Export handles GET /api/sessions/:id/export?format=json|yaml
func (h *Handler) Export(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	mapping := s.Editor.Export()
	switch c.Query("format", "json") {
	case "json":
		return c.JSON(fiber.Map{"data": mapping})
	case "yaml":
		out, err := yaml.Marshal(mapping)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(out)
	default:
		return apperr.Unprocessable("VALIDATION_FAILED", "format must be json or yaml")
	}
}

// Save handles POST /api/sessions/:id/save?as_new=true
func (h *Handler) Save(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	res, err := s.Editor.Save(c.UserContext(), c.QueryBool("as_new", false))
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if !res.Success {
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{"data": res})
}

// Journal handles GET /api/sessions/:id/journal
func (h *Handler) Journal(c *fiber.Ctx) error {
	if h.store == nil {
		return apperr.New("JOURNAL_DISABLED", 404, "the activity journal is disabled")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	entries, err := journal.List(c.UserContext(), h.store, journal.Filter{
		SessionID: c.Params("id"),
		Action:    c.Query("action"),
		Status:    c.Query("status"),
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// DeleteFile handles POST /api/files/delete
func (h *Handler) DeleteFile(c *fiber.Ctx) error {
	var ref collab.FileRef
	if err := c.BodyParser(&ref); err != nil {
		return apperr.InvalidPayload("Invalid JSON body")
	}
	if err := h.files.DeleteFile(c.UserContext(), ref); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
