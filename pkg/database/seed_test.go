package database_test

import (
	"context"
	"testing"

	"chapel-site/internal/repository"
	"chapel-site/internal/testutil"
	"chapel-site/pkg/database"
)

const adminID = "00000000-0000-0000-0000-0000000000ad"

func TestSeedAdminIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	cfg := database.SeedConfig{
		AdminID:          adminID,
		AdminEmail:       "Support@Example.com",
		AdminPassword:    "admin-password",
		AdminDisplayName: "Support",
	}

	first, err := database.Seed(ctx, db, cfg)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	second, err := database.Seed(ctx, db, cfg)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if first.AdminUser.ID != adminID || second.AdminUser.ID != adminID {
		t.Fatalf("admin ids = %s/%s", first.AdminUser.ID, second.AdminUser.ID)
	}
	if second.AdminUser.Email != "support@example.com" {
		t.Fatalf("email not normalized: %s", second.AdminUser.Email)
	}
}

func TestSeedRejectsMissingAdmin(t *testing.T) {
	db := testutil.OpenDB(t)
	tests := []struct {
		name string
		cfg  database.SeedConfig
	}{
		{"no id", database.SeedConfig{AdminEmail: "a@example.com", AdminPassword: "secret-123"}},
		{"no email", database.SeedConfig{AdminID: adminID, AdminPassword: "secret-123"}},
		{"no password", database.SeedConfig{AdminID: adminID, AdminEmail: "a@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := database.Seed(context.Background(), db, tt.cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSeedDemoCustomers(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()

	result, err := database.Seed(ctx, db, database.SeedConfig{
		AdminID:       adminID,
		AdminEmail:    "support@example.com",
		AdminPassword: "admin-password",
		DemoCustomers: 2,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(result.Customers) != 2 || result.Messages != 2 || result.Reviews != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	chats := repository.NewChatRepository(db)
	badge, err := chats.CountRoomsUnreadByAdmin(ctx)
	if err != nil {
		t.Fatalf("badge: %v", err)
	}
	if badge != 2 {
		t.Fatalf("badge = %d, want 2", badge)
	}

	if err := database.TruncateAllTables(db); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	rooms, err := chats.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Fatalf("rooms after truncate = %d", len(rooms))
	}
}
