package model

import (
	"strings"
	"time"
)

type User struct {
	ID        string    `bson:"user_id" json:"id"`                            // Normalized email, doubles as the store key
	Name      string    `bson:"name" json:"name" validate:"required"`         // Display name
	Email     string    `bson:"email" json:"email" validate:"required,email"` // Login email
	Password  string    `bson:"password" json:"password,omitempty"`           // argon2id hash, or legacy plaintext until first login
	Points    int       `bson:"points" json:"points"`                         // Accumulated study points
	Routes    []Route   `bson:"routes" json:"routes"`                         // Study routes in creation order
	Notes     []Note    `bson:"notes" json:"notes"`                           // One note per routeId_activityId key
	CreatedAt time.Time `bson:"created_at" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt,omitempty"`
}

// NormalizeEmail trims and lower-cases an email so every driver keys users the same way.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Key is the normalized email the stores index the record by.
func (u *User) Key() string {
	if u.Email != "" {
		return NormalizeEmail(u.Email)
	}
	return NormalizeEmail(u.ID)
}

// Clone returns a deep copy so callers can mutate routes and notes without
// touching the stored record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Routes != nil {
		cp.Routes = make([]Route, len(u.Routes))
		for i, r := range u.Routes {
			cp.Routes[i] = r.Clone()
		}
	}
	if u.Notes != nil {
		cp.Notes = append([]Note(nil), u.Notes...)
	}
	return &cp
}

// Ensure fills nil collections and keeps ID and Email consistent.
func (u *User) Ensure() {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		u.Email = NormalizeEmail(u.ID)
	}
	u.ID = u.Email
	if u.Routes == nil {
		u.Routes = []Route{}
	}
	if u.Notes == nil {
		u.Notes = []Note{}
	}
}

// FindRoute returns the index of the route with the given id, or -1.
func (u *User) FindRoute(routeID string) int {
	for i := range u.Routes {
		if u.Routes[i].ID == routeID {
			return i
		}
	}
	return -1
}

// FindNote returns the index of the note with the given key, or -1.
func (u *User) FindNote(key string) int {
	for i := range u.Notes {
		if u.Notes[i].Key == key {
			return i
		}
	}
	return -1
}

// UserSummary is the compact identity the client keeps for the logged-in user.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Points int    `json:"points"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Points: u.Points}
}

// Public returns a copy that is safe to send to clients.
func (u *User) Public() *User {
	cp := u.Clone()
	cp.Password = ""
	return cp
}

// UserPatch names every field a partial update may touch. A non-nil field
// replaces the stored value wholesale; nil fields are left alone.
type UserPatch struct {
	Name   *string  `json:"name,omitempty"`
	Points *int     `json:"points,omitempty"`
	Routes *[]Route `json:"routes,omitempty"`
	Notes  *[]Note  `json:"notes,omitempty"`
}

func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Points == nil && p.Routes == nil && p.Notes == nil
}
