package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trentd187/community-chat/internal/database"
	"github.com/trentd187/community-chat/internal/models"
)

// openTestDB connects to the Postgres database named by DATABASE_URL and
// applies the migrations. Tests using it are skipped when the variable is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres store tests")
	}

	require.NoError(t, database.RunMigrations("file://../../migrations", dsn))
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// createUser inserts a throwaway user and deletes it (and, by cascade, its
// groups and memberships) when the test ends.
func createUser(t *testing.T, users *Users, name string) models.User {
	t.Helper()
	email := name + "-" + uuid.NewString() + "@example.com"
	user, err := users.CreateUser(context.Background(), name, email, "hash")
	require.NoError(t, err)
	t.Cleanup(func() {
		users.db.Delete(&models.User{}, "id = ?", user.ID)
	})
	return user
}

func TestUsers_Postgres(t *testing.T) {
	db := openTestDB(t)
	users := NewUsers(db)
	ctx := context.Background()

	ada := createUser(t, users, "ada")
	assert.NotEqual(t, uuid.Nil, ada.ID)

	_, err := users.CreateUser(ctx, "imposter", ada.Email, "hash")
	assert.ErrorIs(t, err, ErrDuplicate)

	byEmail, err := users.FindByEmail(ctx, ada.Email)
	require.NoError(t, err)
	assert.Equal(t, ada.ID, byEmail.ID)

	byID, err := users.FindByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada.Email, byID.Email)

	_, err = users.FindByEmail(ctx, "nobody-"+uuid.NewString()+"@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = users.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroups_Postgres(t *testing.T) {
	db := openTestDB(t)
	users := NewUsers(db)
	groups := NewGroups(db)
	ctx := context.Background()

	owner := createUser(t, users, "owner")
	member := createUser(t, users, "member")

	description := "weekly meetup"
	group, err := groups.CreateGroup(ctx, owner.ID, "Go Club", &description)
	require.NoError(t, err)

	got, err := groups.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 1, "owner joins in the same transaction")
	assert.Equal(t, owner.ID, got.Members[0].UserID)

	t.Run("join is idempotent", func(t *testing.T) {
		require.NoError(t, groups.JoinGroup(ctx, member.ID, group.ID))
		require.NoError(t, groups.JoinGroup(ctx, member.ID, group.ID))

		got, err := groups.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2)

		assert.ErrorIs(t, groups.JoinGroup(ctx, member.ID, uuid.New()), ErrNotFound)
	})

	t.Run("leave is idempotent", func(t *testing.T) {
		require.NoError(t, groups.LeaveGroup(ctx, member.ID, group.ID))
		require.NoError(t, groups.LeaveGroup(ctx, member.ID, group.ID))

		got, err := groups.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 1)
	})

	t.Run("only the owner updates", func(t *testing.T) {
		name := "Gophers"
		_, err := groups.UpdateGroup(ctx, member.ID, group.ID, &name, nil)
		assert.ErrorIs(t, err, ErrNotOwner)

		updated, err := groups.UpdateGroup(ctx, owner.ID, group.ID, &name, nil)
		require.NoError(t, err)
		assert.Equal(t, "Gophers", updated.Name)
		require.NotNil(t, updated.Description)
		assert.Equal(t, description, *updated.Description)

		_, err = groups.UpdateGroup(ctx, owner.ID, uuid.New(), &name, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list includes the group", func(t *testing.T) {
		list, err := groups.ListGroups(ctx)
		require.NoError(t, err)
		found := false
		for _, g := range list {
			if g.ID == group.ID {
				found = true
				assert.Len(t, g.Members, 1)
			}
		}
		assert.True(t, found)
	})

	t.Run("only the owner deletes", func(t *testing.T) {
		require.NoError(t, groups.JoinGroup(ctx, member.ID, group.ID))
		assert.ErrorIs(t, groups.DeleteGroup(ctx, member.ID, group.ID), ErrNotOwner)

		require.NoError(t, groups.DeleteGroup(ctx, owner.ID, group.ID))
		_, err := groups.GetGroup(ctx, group.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		var memberships int64
		require.NoError(t, db.Model(&models.GroupMember{}).Where("group_id = ?", group.ID).Count(&memberships).Error)
		assert.Zero(t, memberships, "memberships cascade with the group")

		assert.ErrorIs(t, groups.DeleteGroup(ctx, owner.ID, group.ID), ErrNotFound)
	})
}
