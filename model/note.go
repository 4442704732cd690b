package model

import (
	"strconv"
	"time"
)

type Note struct {
	Key     string    `bson:"key" json:"key"` // routeId_activityId
	Content string    `bson:"content" json:"content"`
	SavedAt time.Time `bson:"saved_at" json:"savedAt"`
}

func NoteKey(routeID string, activityID int) string {
	return routeID + "_" + strconv.Itoa(activityID)
}

// NoteEntry is a note joined with the titles of the route and activity it belongs to.
type NoteEntry struct {
	RouteID       string    `json:"routeId"`
	ActivityID    int       `json:"activityId"`
	RouteTitle    string    `json:"routeTitle"`
	ActivityTitle string    `json:"activityTitle"`
	Content       string    `json:"content"`
	SavedAt       time.Time `json:"savedAt"`
}
