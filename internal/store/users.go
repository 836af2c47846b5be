package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trentd187/community-chat/internal/models"
)

// Users reads and writes the users table.
type Users struct {
	db *gorm.DB
}

// NewUsers returns a Users store backed by db.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// CreateUser inserts a new user. passwordHash must already be hashed.
// Returns ErrDuplicate if the email is taken.
func (s *Users) CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	// Create runs an INSERT and fills in user.ID from the database default.
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

// FindByEmail looks a user up by login email.
func (s *Users) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

// FindByID looks a user up by primary key.
func (s *Users) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}
