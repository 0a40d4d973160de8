package model

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh random identifier in textual form. Every entity
// gets its own call; ids are never derived from request input.
func NewID() string {
	return uuid.New().String()
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

type Event struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description,omitempty" json:"description,omitempty"`
	Date        time.Time `db:"date" json:"date"`
	MaxTeamSize int       `db:"max_team_size" json:"max_team_size"`
	Solo        bool      `db:"solo" json:"solo"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
}

type Registration struct {
	ID           string    `db:"id" json:"id"`
	EventID      string    `db:"event_id" json:"event_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	TeamName     string    `db:"team_name,omitempty" json:"team_name,omitempty"`
	Phone        string    `db:"phone,omitempty" json:"phone,omitempty"`
	QRCode       string    `db:"qr_code" json:"qr_code"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`

	// Populated by joined reads; nil when the row was fetched alone.
	User *User `db:"-" json:"user,omitempty"`
}

type Admin struct {
	ID             int    `db:"id" json:"id"`
	Username       string `db:"username" json:"username"`
	HashedPassword string `db:"hashed_password" json:"-"`
}
