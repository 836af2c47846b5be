package handlers

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trentd187/community-chat/internal/models"
	"github.com/trentd187/community-chat/internal/store"
)

// memUsers is an in-memory user store with the same error contract as store.Users.
type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]models.User
	err  error // when set, every call fails with it
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[uuid.UUID]models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, username, email, hash string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			return models.User{}, store.ErrDuplicate
		}
	}
	u := models.User{ID: uuid.New(), Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

// memGroups is an in-memory group store with the same error contract as store.Groups.
type memGroups struct {
	mu     sync.Mutex
	groups []models.Group
}

func (m *memGroups) find(id uuid.UUID) int {
	return slices.IndexFunc(m.groups, func(g models.Group) bool { return g.ID == id })
}

func (m *memGroups) CreateGroup(_ context.Context, ownerID uuid.UUID, name string, description *string) (models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := models.Group{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   time.Now(),
	}
	g.Members = []models.GroupMember{{GroupID: g.ID, UserID: ownerID}}
	m.groups = append(m.groups, g)
	return g, nil
}

func (m *memGroups) JoinGroup(_ context.Context, userID, groupID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(groupID)
	if i < 0 {
		return store.ErrNotFound
	}
	for _, mem := range m.groups[i].Members {
		if mem.UserID == userID {
			return nil
		}
	}
	m.groups[i].Members = append(m.groups[i].Members, models.GroupMember{GroupID: groupID, UserID: userID})
	return nil
}

func (m *memGroups) LeaveGroup(_ context.Context, userID, groupID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(groupID); i >= 0 {
		m.groups[i].Members = slices.DeleteFunc(m.groups[i].Members, func(mem models.GroupMember) bool {
			return mem.UserID == userID
		})
	}
	return nil
}

func (m *memGroups) ListGroups(context.Context) ([]models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.groups), nil
}

func (m *memGroups) UpdateGroup(_ context.Context, userID, groupID uuid.UUID, name, description *string) (models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(groupID)
	if i < 0 {
		return models.Group{}, store.ErrNotFound
	}
	if m.groups[i].OwnerID != userID {
		return models.Group{}, store.ErrNotOwner
	}
	if name != nil {
		m.groups[i].Name = *name
	}
	if description != nil {
		m.groups[i].Description = description
	}
	return m.groups[i], nil
}

func (m *memGroups) DeleteGroup(_ context.Context, userID, groupID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(groupID)
	if i < 0 {
		return store.ErrNotFound
	}
	if m.groups[i].OwnerID != userID {
		return store.ErrNotOwner
	}
	m.groups = slices.Delete(m.groups, i, i+1)
	return nil
}
