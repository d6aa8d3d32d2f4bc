package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/user"
	"chapel-site/internal/events"
	"chapel-site/internal/repository"
	"chapel-site/internal/services"
	"chapel-site/internal/testutil"

	"gorm.io/gorm"
)

type chatFixture struct {
	db        *gorm.DB
	repo      *repository.PostgresChatRepository
	bus       *events.LocalBus
	directory *services.RoomDirectory
	protocol  *services.UnreadProtocol
	feed      *services.MessageFeed
	lifecycle *services.ConversationLifecycle
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	repo := repository.NewChatRepository(db)
	users := repository.NewUserRepository(db)
	for _, a := range []chat.Actor{admin, customer("cust-ada", "Ada"), customer("cust-bob", "Bob")} {
		u := &user.User{ID: a.ID, Email: a.ID + "@example.com", PasswordHash: "x", DisplayName: a.Name, AvatarURL: a.AvatarURL, IsActive: true}
		if err := users.Create(context.Background(), u); err != nil {
			t.Fatalf("seed user %s: %v", a.ID, err)
		}
	}
	identity := services.NewIdentityResolver(users, services.NewAdminSet([]string{admin.ID, "admin-2"}))

	var mu sync.Mutex
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})

	bus := events.NewLocalBus(nil)
	return &chatFixture{
		db:        db,
		repo:      repo,
		bus:       bus,
		directory: services.NewRoomDirectory(repo, bus, nil),
		protocol:  services.NewUnreadProtocol(repo, identity, bus, nil, 0),
		feed:      services.NewMessageFeed(repo, bus, nil, 0),
		lifecycle: services.NewConversationLifecycle(repo, bus, nil),
	}
}

var admin = chat.Actor{ID: "admin-1", Role: chat.RoleAdmin, Name: "Support"}

func customer(id, name string) chat.Actor {
	return chat.Actor{ID: id, Role: chat.RoleCustomer, Name: name, AvatarURL: "https://cdn.example.com/" + id + ".png"}
}

func (f *chatFixture) send(t *testing.T, actor chat.Actor, roomID, text string) chat.Message {
	t.Helper()
	msg, err := f.protocol.SendMessage(context.Background(), actor, roomID, text)
	if err != nil {
		t.Fatalf("send %q to %s: %v", text, roomID, err)
	}
	return msg
}

func (f *chatFixture) open(t *testing.T, actor chat.Actor, roomID string) {
	t.Helper()
	if err := f.protocol.OpenRoom(context.Background(), actor, roomID); err != nil {
		t.Fatalf("open %s: %v", roomID, err)
	}
}

func (f *chatFixture) room(t *testing.T, roomID string) chat.Room {
	t.Helper()
	room, err := f.repo.GetRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("get room %s: %v", roomID, err)
	}
	return room
}

func expectCounters(t *testing.T, room chat.Room, forAdmin, forCustomer int64) {
	t.Helper()
	if room.UnreadForAdmin != forAdmin || room.UnreadForCustomer != forCustomer {
		t.Fatalf("room %s counters admin=%d customer=%d, want admin=%d customer=%d",
			room.ID, room.UnreadForAdmin, room.UnreadForCustomer, forAdmin, forCustomer)
	}
}

// waitFor reads from ch until match accepts a value or the deadline passes.
func waitFor[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("subscription closed before expected value")
			}
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out waiting for expected value")
		}
	}
}
