package handlers

// groups.go handles the group ("community") routes: listing, creating, joining,
// leaving, updating and deleting groups.
//
// --- Permission model ---
//   - Anyone can list groups (GET /groups); the web app shows them before login.
//   - Any signed-in user can create, join and leave groups.
//   - Only a group's owner can update or delete it. The store enforces this and
//     reports store.ErrNotOwner, which we turn into 403 Forbidden.

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/community-chat/internal/middleware"
	"github.com/trentd187/community-chat/internal/models"
	"github.com/trentd187/community-chat/internal/store"
)

const maxGroupNameLength = 100

// GroupStore is the part of the group store the handlers need.
// *store.Groups implements it.
type GroupStore interface {
	CreateGroup(ctx context.Context, ownerID uuid.UUID, name string, description *string) (models.Group, error)
	JoinGroup(ctx context.Context, userID, groupID uuid.UUID) error
	LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) error
	ListGroups(ctx context.Context) ([]models.Group, error)
	UpdateGroup(ctx context.Context, userID, groupID uuid.UUID, name, description *string) (models.Group, error)
	DeleteGroup(ctx context.Context, userID, groupID uuid.UUID) error
}

// GroupResponse is what we send back for a group. We use a dedicated response
// struct (instead of the raw GORM model) so we control exactly which fields are
// serialised to JSON. The shape matches the web app's Community type.
type GroupResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"` // null if not set
	Owner       string   `json:"owner"`       // Owner's user UUID
	Members     []string `json:"members"`     // Member user UUIDs, owner included
	CreatedAt   string   `json:"created_at"`  // ISO 8601 timestamp string
}

// CreateGroupRequest is the JSON body we expect on POST /create-group.
// The owner is always the caller; an "owner" field in the body is ignored.
type CreateGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// MembershipRequest is the JSON body for POST /join-group and POST /leave-group.
type MembershipRequest struct {
	GroupID string `json:"group_id"`
}

// UpdateGroupRequest is the JSON body for PUT /update-group. Omitted fields are unchanged.
type UpdateGroupRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func toGroupResponse(g models.Group) GroupResponse {
	members := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, m.UserID.String())
	}
	return GroupResponse{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		Owner:       g.OwnerID.String(),
		Members:     members,
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// validateGroupName trims name and returns a client-facing message if it's unusable.
func validateGroupName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "name is required"
	}
	if utf8.RuneCountInString(name) > maxGroupNameLength {
		return "", "name must be at most 100 characters"
	}
	return name, ""
}

// storeError writes the HTTP response for a store failure.
func storeError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "group not found"})
	case errors.Is(err, store.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only the group owner can do that"})
	default:
		slog.Error(action, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to " + action})
	}
}

// currentUserID reads the caller's ID set by middleware.RequireUser.
func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	user, ok := middleware.CurrentUser(c)
	return user.ID, ok
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthenticated"})
}

// ListGroups returns a handler for GET /groups.
func ListGroups(groups GroupStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := groups.ListGroups(c.UserContext())
		if err != nil {
			return storeError(c, err, "fetch groups")
		}
		response := make([]GroupResponse, 0, len(list))
		for _, g := range list {
			response = append(response, toGroupResponse(g))
		}
		return c.JSON(response)
	}
}

// CreateGroup returns a handler for POST /create-group.
// The caller becomes the owner and first member; the response is HTTP 201.
func CreateGroup(groups GroupStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return unauthenticated(c)
		}

		var req CreateGroupRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		name, msg := validateGroupName(req.Name)
		if msg != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
		}

		group, err := groups.CreateGroup(c.UserContext(), userID, name, req.Description)
		if err != nil {
			return storeError(c, err, "create group")
		}
		return c.Status(fiber.StatusCreated).JSON(toGroupResponse(group))
	}
}

// membership is shared by JoinGroup and LeaveGroup: both read a group_id body
// and call one store method with the caller's ID.
func membership(op func(ctx context.Context, userID, groupID uuid.UUID) error, action, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return unauthenticated(c)
		}

		var req MembershipRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		groupID, err := uuid.Parse(req.GroupID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "group_id must be a UUID",
			})
		}

		if err := op(c.UserContext(), userID, groupID); err != nil {
			return storeError(c, err, action)
		}
		return c.JSON(fiber.Map{"message": message})
	}
}

// JoinGroup returns a handler for POST /join-group. Joining twice is not an error.
func JoinGroup(groups GroupStore) fiber.Handler {
	return membership(groups.JoinGroup, "join group", "Joined group successfully")
}

// LeaveGroup returns a handler for POST /leave-group. Leaving twice is not an error.
func LeaveGroup(groups GroupStore) fiber.Handler {
	return membership(groups.LeaveGroup, "leave group", "Left group successfully")
}

// UpdateGroup returns a handler for PUT /update-group (owner only).
func UpdateGroup(groups GroupStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return unauthenticated(c)
		}

		var req UpdateGroupRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		groupID, err := uuid.Parse(req.ID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "id must be a UUID",
			})
		}
		if req.Name != nil {
			name, msg := validateGroupName(*req.Name)
			if msg != "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
			}
			req.Name = &name
		}

		group, err := groups.UpdateGroup(c.UserContext(), userID, groupID, req.Name, req.Description)
		if err != nil {
			return storeError(c, err, "update group")
		}
		return c.JSON(toGroupResponse(group))
	}
}

// DeleteGroup returns a handler for DELETE /groups/:id (owner only).
// It answers 204 No Content on success.
func DeleteGroup(groups GroupStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return unauthenticated(c)
		}

		groupID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "id must be a UUID",
			})
		}

		if err := groups.DeleteGroup(c.UserContext(), userID, groupID); err != nil {
			return storeError(c, err, "delete group")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
