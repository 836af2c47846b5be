package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/community-chat/internal/models"
)

// Groups reads and writes the groups and group_members tables.
type Groups struct {
	db *gorm.DB
}

// NewGroups returns a Groups store backed by db.
func NewGroups(db *gorm.DB) *Groups {
	return &Groups{db: db}
}

// CreateGroup creates a group owned by ownerID and makes the owner its first member.
func (s *Groups) CreateGroup(ctx context.Context, ownerID uuid.UUID, name string, description *string) (models.Group, error) {
	var created models.Group

	// A transaction keeps the group and the owner's membership together: if the
	// membership insert fails, the group is rolled back too.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group := models.Group{
			Name:        name,
			Description: description,
			OwnerID:     ownerID,
		}
		// Omit the associations so GORM doesn't try to upsert the Owner row.
		if err := tx.Omit(clause.Associations).Create(&group).Error; err != nil {
			return err
		}

		member := models.GroupMember{GroupID: group.ID, UserID: ownerID}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		group.Members = []models.GroupMember{member}
		created = group
		return nil
	})
	if err != nil {
		return models.Group{}, translate(err)
	}
	return created, nil
}

// GetGroup returns one group with its members.
func (s *Groups) GetGroup(ctx context.Context, groupID uuid.UUID) (models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Preload("Members").First(&group, "id = ?", groupID).Error; err != nil {
		return models.Group{}, translate(err)
	}
	return group, nil
}

// JoinGroup adds userID to groupID. Joining a group twice is not an error.
func (s *Groups) JoinGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Group{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
		return translate(err)
	}
	if count == 0 {
		return ErrNotFound
	}

	// ON CONFLICT DO NOTHING makes the insert idempotent on the composite primary key.
	member := models.GroupMember{GroupID: groupID, UserID: userID}
	return translate(db.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error)
}

// LeaveGroup removes userID from groupID. Leaving a group you aren't in is not an error.
func (s *Groups) LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
	return translate(err)
}

// ListGroups returns every group with its members, oldest first.
func (s *Groups) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := s.db.WithContext(ctx).Preload("Members").Order("created_at").Find(&groups).Error; err != nil {
		return nil, translate(err)
	}
	return groups, nil
}

// UpdateGroup changes the name and/or description of a group. Nil fields are left
// alone. Only the owner may update; others get ErrNotOwner.
func (s *Groups) UpdateGroup(ctx context.Context, userID, groupID uuid.UUID, name, description *string) (models.Group, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		// FOR UPDATE locks the row so the ownership check and the update can't interleave
		// with a concurrent delete.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&group, "id = ?", groupID).Error; err != nil {
			return err
		}
		if group.OwnerID != userID {
			return ErrNotOwner
		}

		updates := map[string]any{}
		if name != nil {
			updates["name"] = *name
		}
		if description != nil {
			updates["description"] = *description
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&group).Updates(updates).Error
	})
	if err != nil {
		return models.Group{}, translate(err)
	}
	return s.GetGroup(ctx, groupID)
}

// DeleteGroup removes a group and, through ON DELETE CASCADE, its memberships.
// Only the owner may delete; others get ErrNotOwner.
func (s *Groups) DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&group, "id = ?", groupID).Error; err != nil {
			return err
		}
		if group.OwnerID != userID {
			return ErrNotOwner
		}
		return tx.Delete(&group).Error
	})
	return translate(err)
}
