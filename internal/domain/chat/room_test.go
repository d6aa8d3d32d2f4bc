package chat

import "testing"

func TestAdminBadgeCountsRoomsNotMessages(t *testing.T) {
	rooms := []Room{
		{ID: "a", UnreadForAdmin: 5},
		{ID: "b", UnreadForAdmin: 5},
		{ID: "c", UnreadForAdmin: 5},
		{ID: "d", UnreadForAdmin: 0, UnreadForCustomer: 9},
	}
	if got := AdminBadge(rooms); got != 3 {
		t.Fatalf("expected badge 3, got %d", got)
	}
}

func TestRoleOpposite(t *testing.T) {
	if RoleAdmin.Opposite() != RoleCustomer || RoleCustomer.Opposite() != RoleAdmin {
		t.Fatalf("opposite roles are not symmetric")
	}
	if UnreadColumn(RoleAdmin) != "unread_for_admin" || UnreadColumn(RoleCustomer) != "unread_for_customer" {
		t.Fatalf("unexpected counter columns")
	}
}

func TestRoomNormalize(t *testing.T) {
	r := Room{ID: " c1 ", CustomerName: "  Ada ", UnreadForAdmin: -2, UnreadForCustomer: 3}
	r.Normalize()
	if r.ID != "c1" || r.CustomerName != "Ada" {
		t.Fatalf("fields not trimmed: %+v", r)
	}
	if r.UnreadForAdmin != 0 || r.UnreadForCustomer != 3 {
		t.Fatalf("counters not clamped: %+v", r)
	}
	if r.UnreadFor(RoleCustomer) != 3 {
		t.Fatalf("UnreadFor returned %d", r.UnreadFor(RoleCustomer))
	}
}
