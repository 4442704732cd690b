package handler

import (
	"github.com/dododo1295/studyroute/dto"
	"github.com/dododo1295/studyroute/usecase"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
)

type NotesHandler struct {
	notes *usecase.NotesService
}

func NewNotesHandler(notes *usecase.NotesService) *NotesHandler {
	return &NotesHandler{notes: notes}
}

// ListNotes returns the caller's notes, optionally filtered by ?q=.
func (h *NotesHandler) ListNotes(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}

	query := c.Query("q")
	entries, err := h.notes.ListNotes(c.Request.Context(), email, query)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, dto.NewNotesListResponse(entries, query))
}

func (h *NotesHandler) SaveNote(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}
	activityID, ok := activityParam(c)
	if !ok {
		return
	}

	var req dto.SaveNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	routeID := c.Param("routeId")
	note, err := h.notes.SaveNote(c.Request.Context(), email, routeID, activityID, req.Content)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, dto.ToSavedNoteResponse(routeID, activityID, note))
}

func (h *NotesHandler) DeleteNote(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}
	activityID, ok := activityParam(c)
	if !ok {
		return
	}

	if err := h.notes.DeleteNote(c.Request.Context(), email, c.Param("routeId"), activityID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, gin.H{"message": "Note deleted"})
}
