package events

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return e
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func expectNone(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLocalBus_RoutesByRoom(t *testing.T) {
	bus := NewLocalBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all, err := bus.Subscribe(ctx, ChannelRooms)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	roomA, _ := bus.Subscribe(ctx, RoomChannel("a"))
	roomB, _ := bus.Subscribe(ctx, RoomChannel("b"))

	if err := bus.Publish(ctx, NewEvent(EventMessageCreated, "a", "a")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if e := receive(t, all); e.RoomID != "a" || e.Type != EventMessageCreated {
		t.Fatalf("unexpected directory event %+v", e)
	}
	if e := receive(t, roomA); e.RoomID != "a" {
		t.Fatalf("unexpected room event %+v", e)
	}
	expectNone(t, roomB)
}

func TestLocalBus_NoDuplicateForMultiChannelSubscriber(t *testing.T) {
	bus := NewLocalBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := bus.Subscribe(ctx, ChannelRooms, RoomChannel("a"))
	_ = bus.Publish(ctx, NewEvent(EventRoomRead, "a", ""))

	receive(t, ch)
	expectNone(t, ch)
}

func TestLocalBus_UnsubscribesOnCancel(t *testing.T) {
	bus := NewLocalBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	ch, _ := bus.Subscribe(ctx, RoomChannel("a"))
	if bus.SubscriberCount(RoomChannel("a")) != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}
	if n := bus.SubscriberCount(RoomChannel("a")); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
	if err := bus.Publish(context.Background(), NewEvent(EventRoomDeleted, "a", "")); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestLocalBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewLocalBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := bus.Subscribe(ctx, ChannelRooms)
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			_ = bus.Publish(ctx, NewEvent(EventMessageCreated, "a", ""))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("expected buffer full with %d events, got %d", subscriberBuffer, len(ch))
	}
}

func TestRoomChannelResolver(t *testing.T) {
	r := NewRoomChannelResolver()
	got := r.ResolveChannels(NewEvent(EventRoomCleared, "x", ""))
	if len(got) != 2 || got[0] != ChannelRooms || got[1] != "channel:room:x" {
		t.Fatalf("unexpected channels %v", got)
	}
	if got := r.ResolveChannels(Event{Type: EventRoomRead}); len(got) != 1 {
		t.Fatalf("expected directory channel only, got %v", got)
	}
}
