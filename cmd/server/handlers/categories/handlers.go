package categories

import (
	"context"
	"net/http"

	"note-taker/cmd/server/handlers/handlerutil"
	"note-taker/internal/services/categories"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the interface for categories service
type Service interface {
	List(ctx context.Context, userID bson.ObjectID) (*categories.ListCategoriesResponse, error)
	Create(ctx context.Context, userID bson.ObjectID, req categories.CreateCategoryRequest) (*categories.CategoryResponse, error)
	Update(ctx context.Context, userID, id bson.ObjectID, req categories.UpdateCategoryRequest) (*categories.CategoryResponse, error)
	Delete(ctx context.Context, userID, id bson.ObjectID) error
	DeleteWithNotes(ctx context.Context, userID, id bson.ObjectID) (*categories.AffectedResponse, error)
	MoveNotesAndDelete(ctx context.Context, userID, id bson.ObjectID, req categories.MoveNotesAndDeleteRequest) (*categories.AffectedResponse, error)
}

// Handlers contains the categories HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new categories handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{service: service, validator: validator}
}

var known = []handlerutil.Known{
	handlerutil.NotFound(categories.ErrCategoryNotFound),
	handlerutil.NotFound(categories.ErrTargetNotFound),
	handlerutil.BadRequest(categories.ErrSameTarget),
	handlerutil.BadRequest(categories.ErrBlankName),
	handlerutil.BadRequest(categories.ErrInvalidID),
}

// List handles categories listing
// @Summary List categories in creation order, with note counts
// @Tags categories
// @Produce json
// @Security Bearer
// @Success 200 {object} categories.ListCategoriesResponse
// @Failure 401 {object} httperr.E
// @Router /categories [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.service.List(c.Context(), userID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "ListCategories", userID, nil, known...)
	}
	return c.JSON(resp)
}

// Create handles category creation
// @Summary Create a category
// @Description Name defaults to "New Category" and theme to "orange"
// @Tags categories
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body categories.CreateCategoryRequest true "Create category request"
// @Success 201 {object} categories.CategoryResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /categories [post]
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req categories.CreateCategoryRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "CreateCategory"); err != nil {
		return err
	}

	resp, err := h.service.Create(c.Context(), userID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "CreateCategory", userID, nil, known...)
	}
	return c.Status(http.StatusCreated).JSON(resp)
}

// Update handles rename and recolor
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Category ID"
// @Param request body categories.UpdateCategoryRequest true "Update category request"
// @Success 200 {object} categories.CategoryResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /categories/{id} [patch]
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	id, err := handlerutil.ExtractID(c, userID, "UpdateCategory", categories.ErrCategoryNotFound)
	if err != nil {
		return err
	}

	var req categories.UpdateCategoryRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "UpdateCategory"); err != nil {
		return err
	}

	resp, err := h.service.Update(c.Context(), userID, id, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "UpdateCategory", userID, &id, known...)
	}
	return c.JSON(resp)
}

// Delete removes a category, leaving its notes uncategorized
// @Summary Delete a category
// @Tags categories
// @Security Bearer
// @Param id path string true "Category ID"
// @Success 204
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /categories/{id} [delete]
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	id, err := handlerutil.ExtractID(c, userID, "DeleteCategory", categories.ErrCategoryNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), userID, id); err != nil {
		return handlerutil.HandleServiceError(err, "DeleteCategory", userID, &id, known...)
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteWithNotes removes a category and every note in it
// @Summary Delete a category and its notes
// @Tags categories
// @Produce json
// @Security Bearer
// @Param id path string true "Category ID"
// @Success 200 {object} categories.AffectedResponse
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /categories/{id}/delete-with-notes [post]
func (h *Handlers) DeleteWithNotes(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	id, err := handlerutil.ExtractID(c, userID, "DeleteCategoryWithNotes", categories.ErrCategoryNotFound)
	if err != nil {
		return err
	}

	resp, err := h.service.DeleteWithNotes(c.Context(), userID, id)
	if err != nil {
		return handlerutil.HandleServiceError(err, "DeleteCategoryWithNotes", userID, &id, known...)
	}
	return c.JSON(resp)
}

// MoveNotesAndDelete moves the notes to another category, then removes this one
// @Summary Move notes to another category and delete this one
// @Tags categories
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Category ID"
// @Param request body categories.MoveNotesAndDeleteRequest true "Target category"
// @Success 200 {object} categories.AffectedResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /categories/{id}/move-notes-and-delete [post]
func (h *Handlers) MoveNotesAndDelete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	id, err := handlerutil.ExtractID(c, userID, "MoveNotesAndDelete", categories.ErrCategoryNotFound)
	if err != nil {
		return err
	}

	var req categories.MoveNotesAndDeleteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "MoveNotesAndDelete"); err != nil {
		return err
	}

	resp, err := h.service.MoveNotesAndDelete(c.Context(), userID, id, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "MoveNotesAndDelete", userID, &id, known...)
	}
	return c.JSON(resp)
}
