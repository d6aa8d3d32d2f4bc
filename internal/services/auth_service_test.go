package services_test

import (
	"context"
	"errors"
	"testing"

	"chapel-site/config"
	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/user"
	"chapel-site/internal/repository"
	"chapel-site/internal/services"
	"chapel-site/internal/testutil"
	chapel_errors "chapel-site/pkg/errors"
)

const testAdminID = "00000000-0000-0000-0000-00000000a001"

func newAuthService(t *testing.T) (*services.AuthService, repository.UserRepository) {
	t.Helper()
	users := repository.NewUserRepository(testutil.OpenDB(t))
	identity := services.NewIdentityResolver(users, services.NewAdminSet([]string{testAdminID}))
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiryMin: 15}
	return services.NewAuthService(users, identity, cfg), users
}

func TestRegisterAndAuthenticate(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	resp, err := auth.Register(ctx, services.RegisterInput{
		Email:       "  Ada@Example.com ",
		Password:    "correct-horse",
		DisplayName: "Ada",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.AccessToken == "" || resp.ExpiresIn != 900 {
		t.Fatalf("unexpected token response: %+v", resp)
	}
	if resp.User.Email != "ada@example.com" || resp.User.Role != chat.RoleCustomer {
		t.Fatalf("unexpected user: %+v", resp.User)
	}

	actor, err := auth.Authenticate(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.ID != resp.User.ID || actor.Role != chat.RoleCustomer || actor.Name != "Ada" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestRegister_Rejects(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := auth.Register(ctx, services.RegisterInput{Email: "a@example.com", Password: "long-enough", DisplayName: "A"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name string
		in   services.RegisterInput
		want error
	}{
		{"duplicate email", services.RegisterInput{Email: "A@example.com", Password: "long-enough", DisplayName: "A"}, chapel_errors.ErrAlreadyExists},
		{"short password", services.RegisterInput{Email: "b@example.com", Password: "short", DisplayName: "B"}, chapel_errors.ErrInvalidInput},
		{"bad email", services.RegisterInput{Email: "not-an-email", Password: "long-enough", DisplayName: "B"}, chapel_errors.ErrInvalidInput},
		{"missing name", services.RegisterInput{Email: "c@example.com", Password: "long-enough", DisplayName: "  "}, chapel_errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Register(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	auth, users := newAuthService(t)
	ctx := context.Background()

	hash, err := services.HashPassword("admin-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := users.Create(ctx, &user.User{ID: testAdminID, Email: "support@example.com", PasswordHash: hash, DisplayName: "Support", IsActive: true}); err != nil {
		t.Fatalf("create admin: %v", err)
	}

	resp, err := auth.Login(ctx, services.LoginInput{Email: "support@example.com", Password: "admin-password"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.Role != chat.RoleAdmin {
		t.Fatalf("role = %s, want admin", resp.User.Role)
	}
	actor, err := auth.Authenticate(ctx, resp.AccessToken)
	if err != nil || !actor.IsAdmin() {
		t.Fatalf("authenticate admin = %+v, %v", actor, err)
	}

	if _, err := auth.Login(ctx, services.LoginInput{Email: "support@example.com", Password: "wrong-password"}); !errors.Is(err, chapel_errors.ErrUnauthorized) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := auth.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, chapel_errors.ErrUnauthorized) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestParseAccessToken_Rejects(t *testing.T) {
	auth, _ := newAuthService(t)
	other := services.NewAuthService(nil, nil, &config.Config{JWTSecret: "other-secret", JWTExpiryMin: 15})

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := auth.ParseAccessToken(token); !errors.Is(err, chapel_errors.ErrUnauthorized) {
			t.Fatalf("token %q err = %v", token, err)
		}
	}

	resp, err := auth.Register(context.Background(), services.RegisterInput{Email: "x@example.com", Password: "long-enough", DisplayName: "X"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := other.ParseAccessToken(resp.AccessToken); !errors.Is(err, chapel_errors.ErrUnauthorized) {
		t.Fatalf("token signed with another secret accepted: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	auth, _ := newAuthService(t)
	ctx := context.Background()
	resp, err := auth.Register(ctx, services.RegisterInput{Email: "p@example.com", Password: "long-enough", DisplayName: "Pat"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name := "Patricia"
	avatar := "https://cdn.example.com/p.png"
	info, err := auth.UpdateProfile(ctx, resp.User.ID, services.ProfileInput{DisplayName: &name, AvatarURL: &avatar})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if info.DisplayName != name || info.AvatarURL != avatar {
		t.Fatalf("unexpected profile: %+v", info)
	}

	blank := " "
	if _, err := auth.UpdateProfile(ctx, resp.User.ID, services.ProfileInput{DisplayName: &blank}); !errors.Is(err, chapel_errors.ErrInvalidInput) {
		t.Fatalf("blank name err = %v", err)
	}
}

func TestAdminSet(t *testing.T) {
	set := services.NewAdminSet([]string{" a ", "", "b"})
	if !set.Contains("a") || !set.Contains("b") || set.Contains("") {
		t.Fatalf("unexpected set: %v", set)
	}
	if set.RoleOf("a") != chat.RoleAdmin || set.RoleOf("c") != chat.RoleCustomer {
		t.Fatalf("unexpected roles")
	}
}

func TestActorContext(t *testing.T) {
	if _, ok := services.ActorFromContext(context.Background()); ok {
		t.Fatalf("empty context carried an actor")
	}
	ctx := services.WithActor(context.Background(), admin)
	got, ok := services.ActorFromContext(ctx)
	if !ok || got.ID != admin.ID {
		t.Fatalf("actor round trip = %+v, %v", got, ok)
	}
	if id, ok := services.UserIDFromContext(ctx); !ok || id != admin.ID {
		t.Fatalf("user id = %q, %v", id, ok)
	}
}
