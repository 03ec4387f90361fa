package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/ports"
)

type NoteHandler struct {
	noteService ports.NoteService
}

func NewNoteHandler(noteService ports.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

type noteRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// List returns the caller's notes.
//
// @Summary      List notes
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ports.NoteView
// @Router       /api/notes [get]
func (h *NoteHandler) List(c echo.Context) error {
	notes, err := h.noteService.List(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

// Get returns one of the caller's notes.
//
// @Summary      Get note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Note ID"
// @Success      200  {object}  ports.NoteView
// @Failure      404  {object}  ErrorResponse
// @Router       /api/notes/{id} [get]
func (h *NoteHandler) Get(c echo.Context) error {
	note, err := h.noteService.Get(c.Request().Context(), actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Create adds a note owned by the caller.
//
// @Summary      Create note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      noteRequest  true  "Note"
// @Success      201   {object}  ports.NoteView
// @Failure      400   {object}  ErrorResponse
// @Router       /api/notes [post]
func (h *NoteHandler) Create(c echo.Context) error {
	var req noteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	note, err := h.noteService.Create(c.Request().Context(), actor(c), ports.NoteInput{Title: req.Title, Description: req.Description})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, note)
}

// Update replaces the title and description of a note.
//
// @Summary      Update note
// @Tags         notes
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string       true  "Note ID"
// @Param        body  body  noteRequest  true  "Note"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /api/notes/{id} [put]
func (h *NoteHandler) Update(c echo.Context) error {
	var req noteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.noteService.Update(c.Request().Context(), actor(c), c.Param("id"), ports.NoteInput{Title: req.Title, Description: req.Description}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a note.
//
// @Summary      Delete note
// @Tags         notes
// @Security     BearerAuth
// @Param        id  path  string  true  "Note ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /api/notes/{id} [delete]
func (h *NoteHandler) Delete(c echo.Context) error {
	if err := h.noteService.Delete(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
