package feed

import (
	"context"
	"testing"
	"time"

	"globalroom/backend/internal/models"

	"gorm.io/gorm"
)

func testEvent(id uint, text string) Event {
	return Event{
		Kind: KindInsert,
		Record: models.Message{
			Model: gorm.Model{ID: id, CreatedAt: time.Now()},
			Text:  text,
		},
	}
}

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	first, cancelFirst, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancelFirst()

	second, cancelSecond, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancelSecond()

	if err := bus.Publish(ctx, testEvent(1, "hi")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for _, ch := range []<-chan Event{first, second} {
		select {
		case ev := <-ch:
			if ev.Record.ID != 1 || ev.Record.Text != "hi" {
				t.Errorf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, cancel, err := bus.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	cancel()
	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}

	// Calling cancel again must not panic.
	cancel()

	// Publishing after unsubscribe must not panic either.
	if err := bus.Publish(context.Background(), testEvent(1, "late")); err != nil {
		t.Fatalf("Publish after unsubscribe failed: %v", err)
	}
}

func TestBusSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()

	_, cancel, err := bus.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	// Nobody drains the channel; publishing past the buffer must drop, not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = bus.Publish(context.Background(), testEvent(uint(i+1), "flood"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
