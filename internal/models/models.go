// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model is small:
//   - Users sign up with a username, email and password
//   - Groups (shown as "communities" in the web app) are owned by one User
//   - GroupMember links Users to the Groups they joined
//
// Chat messages are relayed live and never stored, so there is no message table.
package models

import (
	"time"

	// uuid provides universally unique identifiers for primary keys.
	"github.com/google/uuid"
)

// User represents a registered person in the system.
// PasswordHash is a bcrypt hash; the plain password is never stored.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"` // UUID primary key; the DB generates it automatically
	Username     string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"` // Login identifier; unique across all users
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time // GORM automatically sets this on create
	UpdatedAt    time.Time // GORM automatically updates this on every save
}

// PublicUser is the part of a User that is safe to send to clients.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Public strips the password hash and timestamps from u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Group is a named community that users can join. Its name is also the name of
// its chat room in the web app.
type Group struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string        `gorm:"not null"`
	Description *string       // Optional description; pointer = nullable
	OwnerID     uuid.UUID     `gorm:"type:uuid;not null"` // Foreign key: the user who created the group
	Owner       User          `gorm:"foreignKey:OwnerID"`
	Members     []GroupMember `gorm:"foreignKey:GroupID"` // Everyone who joined, owner included
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GroupMember is a join table linking a User to a Group.
// The composite primary key means a user can only be in a group once.
type GroupMember struct {
	GroupID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}
