package realtime

import (
	"testing"

	"github.com/hivedesk/hivedesk-backend/internal/models"
)

func TestHubDeliver(t *testing.T) {
	h := NewHub()

	ch1, cancel1 := h.Subscribe("u1")
	ch2, cancel2 := h.Subscribe("u1")
	defer cancel2()

	h.Deliver("u1", models.Event{Type: models.EventGroupMessage, GroupID: "g1"})

	for _, ch := range []<-chan models.Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.GroupID != "g1" {
				t.Fatalf("unexpected event %+v", evt)
			}
		default:
			t.Fatal("expected buffered event")
		}
	}

	// Other users see nothing.
	ch3, cancel3 := h.Subscribe("u2")
	defer cancel3()
	h.Deliver("u1", models.Event{Type: models.EventGroupMessage})
	select {
	case <-ch3:
		t.Fatal("event leaked to another user")
	default:
	}

	// Cancel closes the channel and stops delivery.
	cancel1()
	if _, ok := <-ch1; ok {
		// One event may still be buffered; drain until closed.
		for range ch1 {
		}
	}
	h.Deliver("u1", models.Event{Type: models.EventGroupMessage})
	select {
	case evt := <-ch2:
		if evt.Type != models.EventGroupMessage {
			t.Fatalf("unexpected event %+v", evt)
		}
	default:
		t.Fatal("remaining subscriber should still receive")
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	// Overfill the buffer; Deliver must not block.
	for i := 0; i < subscriberBuffer+10; i++ {
		h.Deliver("u1", models.Event{Type: models.EventUnreadCountUpdate})
	}

	if len(ch) != subscriberBuffer {
		t.Fatalf("expected exactly %d buffered events, got %d", subscriberBuffer, len(ch))
	}
}
