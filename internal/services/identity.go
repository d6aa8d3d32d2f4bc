package services

import (
	"context"
	"strings"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/user"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"
)

// AdminSet holds the user ids that act as the support admin.
type AdminSet map[string]struct{}

func NewAdminSet(ids []string) AdminSet {
	set := make(AdminSet, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (s AdminSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s AdminSet) RoleOf(id string) chat.Role {
	if s.Contains(id) {
		return chat.RoleAdmin
	}
	return chat.RoleCustomer
}

// IdentityResolver turns an authenticated user id into a chat actor.
type IdentityResolver struct {
	users  repository.UserRepository
	admins AdminSet
}

func NewIdentityResolver(users repository.UserRepository, admins AdminSet) *IdentityResolver {
	return &IdentityResolver{users: users, admins: admins}
}

func (r *IdentityResolver) Resolve(ctx context.Context, userID string) (chat.Actor, error) {
	u, err := r.users.GetUserByID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return chat.Actor{}, chapel_errors.ErrUnauthorized
		}
		return chat.Actor{}, err
	}
	if !u.IsActive {
		return chat.Actor{}, chapel_errors.ErrForbidden
	}
	return r.ActorFor(u), nil
}

// Customer returns the customer whose room is keyed by roomID. Unknown ids
// are ErrNotFound; admin ids are ErrInvalidInput since the admin has no room.
func (r *IdentityResolver) Customer(ctx context.Context, roomID string) (chat.Actor, error) {
	if r.admins.Contains(roomID) {
		return chat.Actor{}, chapel_errors.ErrInvalidInput
	}
	u, err := r.users.GetUserByID(ctx, roomID)
	if err != nil {
		return chat.Actor{}, err
	}
	return r.ActorFor(u), nil
}

func (r *IdentityResolver) ActorFor(u user.User) chat.Actor {
	return chat.Actor{
		ID:        u.ID,
		Role:      r.admins.RoleOf(u.ID),
		Name:      u.DisplayName,
		AvatarURL: u.AvatarURL,
	}
}

type ctxKey string

var actorKey ctxKey = "actor"

// WithActor stores the actor on ctx and tags it for request-scoped logging.
func WithActor(ctx context.Context, actor chat.Actor) context.Context {
	ctx = context.WithValue(ctx, actorKey, actor)
	return context.WithValue(ctx, logger.UserIdKey, actor.ID)
}

func ActorFromContext(ctx context.Context) (chat.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(chat.Actor)
	return actor, ok
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.ID == "" {
		return "", false
	}
	return actor.ID, true
}
