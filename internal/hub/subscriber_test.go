package hub

import (
	"testing"
	"time"

	"github.com/gowrishetty09/driverlink/internal/domain"
	"github.com/gowrishetty09/driverlink/internal/domain/events"
	"github.com/gowrishetty09/driverlink/internal/testutil"
)

func TestChannelSubscriber_SendReceive(t *testing.T) {
	sub := NewChannelSubscriber("s1", 4)

	event := events.NewWireEvent("ride:update", nil)
	if err := sub.Send(event); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case got := <-sub.Events():
		if got.Type() != "ride:update" {
			t.Errorf("received event type = %v, want ride:update", got.Type())
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestChannelSubscriber_FullBufferFailsSend(t *testing.T) {
	sub := NewChannelSubscriber("s1", 1)

	if err := sub.Send(events.NewWireEvent("a", nil)); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	if err := sub.Send(events.NewWireEvent("b", nil)); err != domain.ErrSubscriberClosed {
		t.Errorf("Send() on full buffer = %v, want ErrSubscriberClosed", err)
	}
}

func TestChannelSubscriber_CloseIsIdempotent(t *testing.T) {
	sub := NewChannelSubscriber("s1", 1)

	if err := sub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := sub.Send(events.NewWireEvent("a", nil)); err != domain.ErrSubscriberClosed {
		t.Errorf("Send() after close = %v, want ErrSubscriberClosed", err)
	}

	select {
	case <-sub.Done():
	default:
		t.Error("Done() not closed after Close()")
	}
}

func TestFilteredSubscriber_FiltersByEventType(t *testing.T) {
	inner := testutil.NewMockSubscriber("s1")
	sub := NewFilteredSubscriber(inner, "ride:update")

	_ = sub.Send(events.NewWireEvent("ride:update", nil))
	_ = sub.Send(events.NewWireEvent("driver:notice", nil))

	if inner.EventCount() != 1 {
		t.Fatalf("inner received %d events, want 1", inner.EventCount())
	}
	if inner.Events()[0].Type() != "ride:update" {
		t.Errorf("forwarded event type = %v, want ride:update", inner.Events()[0].Type())
	}
}

func TestFilteredSubscriber_NoFilterForwardsAll(t *testing.T) {
	inner := testutil.NewMockSubscriber("s1")
	sub := NewFilteredSubscriber(inner)

	_ = sub.Send(events.NewWireEvent("a", nil))
	_ = sub.Send(events.NewWireEvent("b", nil))

	if inner.EventCount() != 2 {
		t.Errorf("inner received %d events, want 2", inner.EventCount())
	}
}

func TestFilteredSubscriber_SubscribeUnsubscribeType(t *testing.T) {
	inner := testutil.NewMockSubscriber("s1")
	sub := NewFilteredSubscriber(inner, "a")

	sub.SubscribeType("b")
	_ = sub.Send(events.NewWireEvent("b", nil))
	if inner.EventCount() != 1 {
		t.Fatalf("inner received %d events, want 1", inner.EventCount())
	}

	sub.UnsubscribeType("b")
	_ = sub.Send(events.NewWireEvent("b", nil))
	if inner.EventCount() != 1 {
		t.Errorf("inner received %d events after unsubscribe, want 1", inner.EventCount())
	}
}
