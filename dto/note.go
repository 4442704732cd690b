package dto

import (
	"fmt"
	"time"

	"github.com/dododo1295/studyroute/model"
)

type SaveNoteRequest struct {
	Content string `json:"content" binding:"max=20000"`
}

type NoteResponse struct {
	RouteID       string          `json:"routeId"`
	ActivityID    int             `json:"activityId"`
	RouteTitle    string          `json:"routeTitle,omitempty"`
	ActivityTitle string          `json:"activityTitle,omitempty"`
	Content       string          `json:"content"`
	SavedAt       time.Time       `json:"savedAt"`
	Links         map[string]Link `json:"_links,omitempty"`
}

type NotesListResponse struct {
	Notes      []NoteResponse `json:"notes"`
	TotalCount int            `json:"total_count"`
	Query      string         `json:"query,omitempty"`
}

func noteLinks(routeID string, activityID int) map[string]Link {
	href := fmt.Sprintf("/api/notes/%s/%d", routeID, activityID)
	return map[string]Link{
		"self":     {Href: href, Method: "PUT"},
		"delete":   {Href: href, Method: "DELETE"},
		"activity": {Href: fmt.Sprintf("/api/routes/%s", routeID), Method: "GET"},
	}
}

func ToNoteResponse(entry model.NoteEntry) NoteResponse {
	return NoteResponse{
		RouteID:       entry.RouteID,
		ActivityID:    entry.ActivityID,
		RouteTitle:    entry.RouteTitle,
		ActivityTitle: entry.ActivityTitle,
		Content:       entry.Content,
		SavedAt:       entry.SavedAt,
		Links:         noteLinks(entry.RouteID, entry.ActivityID),
	}
}

func ToSavedNoteResponse(routeID string, activityID int, note *model.Note) NoteResponse {
	return NoteResponse{
		RouteID:    routeID,
		ActivityID: activityID,
		Content:    note.Content,
		SavedAt:    note.SavedAt,
		Links:      noteLinks(routeID, activityID),
	}
}

func NewNotesListResponse(entries []model.NoteEntry, query string) NotesListResponse {
	notes := make([]NoteResponse, len(entries))
	for i, e := range entries {
		notes[i] = ToNoteResponse(e)
	}
	return NotesListResponse{Notes: notes, TotalCount: len(notes), Query: query}
}
