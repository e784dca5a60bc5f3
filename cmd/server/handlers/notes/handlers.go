package notes

import (
	"context"
	"net/http"

	"note-taker/cmd/server/handlers/handlerutil"
	"note-taker/internal/services/notes"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the interface for notes service
type Service interface {
	Create(ctx context.Context, userID bson.ObjectID, req notes.CreateNoteRequest) (*notes.NoteResponse, error)
	List(ctx context.Context, userID bson.ObjectID, req notes.ListNotesRequest) (*notes.ListNotesResponse, error)
	Update(ctx context.Context, userID, noteID bson.ObjectID, req notes.UpdateNoteRequest) (*notes.NoteResponse, error)
	Delete(ctx context.Context, userID, noteID bson.ObjectID) error
	BulkMove(ctx context.Context, userID bson.ObjectID, req notes.BulkMoveRequest) (*notes.AffectedResponse, error)
}

// Handlers contains the notes HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new notes handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

var known = []handlerutil.Known{
	handlerutil.NotFound(notes.ErrNoteNotFound),
	handlerutil.NotFound(notes.ErrCategoryNotFound),
	handlerutil.BadRequest(notes.ErrInvalidID),
}

// Create handles note creation
// @Summary Create a new note
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body notes.CreateNoteRequest true "Create note request"
// @Success 201 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes [post]
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req notes.CreateNoteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Create"); err != nil {
		return err
	}

	resp, err := h.service.Create(c.Context(), userID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Create", userID, nil, known...)
	}

	return c.Status(http.StatusCreated).JSON(resp)
}

// List handles notes listing
// @Summary List notes, most recently updated first
// @Tags notes
// @Produce json
// @Security Bearer
// @Param category_id query string false "Only notes of this category"
// @Success 200 {object} notes.ListNotesResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /notes [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req notes.ListNotesRequest
	if err := handlerutil.ParseAndValidateQuery(c, &req, h.validator, "List"); err != nil {
		return err
	}

	resp, err := h.service.List(c.Context(), userID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "List", userID, nil, known...)
	}

	return c.JSON(resp)
}

// Update handles note updates
// @Summary Update a note
// @Description An empty category_id uncategorizes the note
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Param request body notes.UpdateNoteRequest true "Update note request"
// @Success 200 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [patch]
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractID(c, userID, "Update", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	var req notes.UpdateNoteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Update"); err != nil {
		return err
	}

	resp, err := h.service.Update(c.Context(), userID, noteID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Update", userID, &noteID, known...)
	}

	return c.JSON(resp)
}

// Delete handles note deletion
// @Summary Delete a note
// @Tags notes
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 204
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [delete]
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractID(c, userID, "Delete", notes.ErrNoteNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), userID, noteID); err != nil {
		return handlerutil.HandleServiceError(err, "Delete", userID, &noteID, known...)
	}

	return c.SendStatus(http.StatusNoContent)
}

// BulkMove handles reassigning several notes at once
// @Summary Move notes to a category
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body notes.BulkMoveRequest true "Bulk move request"
// @Success 200 {object} notes.AffectedResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/bulk-move [post]
func (h *Handlers) BulkMove(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req notes.BulkMoveRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "BulkMove"); err != nil {
		return err
	}

	resp, err := h.service.BulkMove(c.Context(), userID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "BulkMove", userID, nil, known...)
	}

	return c.JSON(resp)
}
