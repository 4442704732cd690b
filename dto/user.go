package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dododo1295/studyroute/model"
)

type Link struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"` // Optional: GET, POST, PUT, DELETE
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdatePointsRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Points *int   `json:"points" binding:"required"` // delta added to the stored total
}

type SaveUserDataRequest struct {
	Email   string          `json:"email" binding:"required,email"`
	NewData json.RawMessage `json:"newData" binding:"required"`
}

// Patch decodes newData into the field-level patch. Keys other than name,
// points, routes and notes are rejected.
func (r SaveUserDataRequest) Patch() (model.UserPatch, error) {
	var patch model.UserPatch
	dec := json.NewDecoder(bytes.NewReader(r.NewData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		return model.UserPatch{}, fmt.Errorf("%w: %v", model.ErrInvalidPatch, err)
	}
	return patch, nil
}

// AuthResponse is returned by login and register: the compact identity, the
// full record without its password, and the bearer token.
type AuthResponse struct {
	User      model.UserSummary `json:"user"`
	UserData  *model.User       `json:"userData"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Links     map[string]Link   `json:"_links,omitempty"`
}

func ToAuthResponse(user *model.User, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		User:      user.Summary(),
		UserData:  user.Public(),
		Token:     token,
		ExpiresAt: expiresAt,
		Links: map[string]Link{
			"self":   {Href: "/api/me", Method: "GET"},
			"stats":  {Href: "/api/stats", Method: "GET"},
			"notes":  {Href: "/api/notes", Method: "GET"},
			"logout": {Href: "/api/logout", Method: "POST"},
		},
	}
}

type ProfileResponse struct {
	User     model.UserSummary    `json:"user"`
	UserData *model.User          `json:"userData"`
	Stats    model.DashboardStats `json:"stats"`
	Links    map[string]Link      `json:"_links,omitempty"`
}
