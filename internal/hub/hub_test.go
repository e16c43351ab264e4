package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gowrishetty09/driverlink/internal/domain/events"
	"github.com/gowrishetty09/driverlink/internal/testutil"
)

func TestHub_StartStop(t *testing.T) {
	h := New()

	if err := h.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !h.IsRunning() {
		t.Error("hub should be running after Start()")
	}

	// Starting again should be a no-op
	if err := h.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if h.IsRunning() {
		t.Error("hub should not be running after Stop()")
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestHub_PublishToMultipleSubscribers(t *testing.T) {
	h := New()
	_ = h.Start()
	defer func() { _ = h.Stop() }()

	time.Sleep(10 * time.Millisecond)

	sub1 := testutil.NewMockSubscriber("s1")
	sub2 := testutil.NewMockSubscriber("s2")
	h.Subscribe(sub1)
	h.Subscribe(sub2)

	time.Sleep(10 * time.Millisecond)

	for i := 0; i < 5; i++ {
		h.Publish(events.NewWireEvent("ride:update", nil))
	}

	time.Sleep(50 * time.Millisecond)

	for _, sub := range []*testutil.MockSubscriber{sub1, sub2} {
		if sub.EventCount() != 5 {
			t.Errorf("subscriber %s received %d events, want 5", sub.ID(), sub.EventCount())
		}
	}
}

func TestHub_UnsubscribeClosesSubscriber(t *testing.T) {
	h := New()
	_ = h.Start()
	defer func() { _ = h.Stop() }()

	time.Sleep(10 * time.Millisecond)

	sub := testutil.NewMockSubscriber("s1")
	h.Subscribe(sub)
	time.Sleep(10 * time.Millisecond)

	h.Unsubscribe("s1")
	time.Sleep(10 * time.Millisecond)

	if h.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", h.SubscriberCount())
	}
	if !sub.IsClosed() {
		t.Error("subscriber should be closed after unsubscribe")
	}
}

func TestHub_FailedSendRemovesSubscriber(t *testing.T) {
	h := New()
	_ = h.Start()
	defer func() { _ = h.Stop() }()

	time.Sleep(10 * time.Millisecond)

	failing := testutil.NewMockSubscriber("failing")
	failing.SetSendError(errors.New("send failed"))
	good := testutil.NewMockSubscriber("good")

	h.Subscribe(failing)
	h.Subscribe(good)
	time.Sleep(10 * time.Millisecond)

	h.Publish(events.NewWireEvent("ride:update", nil))
	time.Sleep(50 * time.Millisecond)

	if h.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1 (failing subscriber removed)", h.SubscriberCount())
	}
	if good.EventCount() != 1 {
		t.Errorf("good subscriber received %d events, want 1", good.EventCount())
	}
}

func TestHub_ConcurrentPublish(t *testing.T) {
	h := New()
	_ = h.Start()
	defer func() { _ = h.Stop() }()

	time.Sleep(10 * time.Millisecond)

	sub := testutil.NewMockSubscriber("s1")
	h.Subscribe(sub)
	time.Sleep(10 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				h.Publish(events.NewWireEvent("ride:update", nil))
			}
		}()
	}
	wg.Wait()
	time.Sleep(100 * time.Millisecond)

	if sub.EventCount() != 100 {
		t.Errorf("subscriber received %d events, want 100", sub.EventCount())
	}
}

func TestHub_StopClosesAllSubscribers(t *testing.T) {
	h := New()
	_ = h.Start()

	time.Sleep(10 * time.Millisecond)

	sub1 := testutil.NewMockSubscriber("s1")
	sub2 := testutil.NewMockSubscriber("s2")
	h.Subscribe(sub1)
	h.Subscribe(sub2)
	time.Sleep(10 * time.Millisecond)

	_ = h.Stop()

	if !sub1.IsClosed() || !sub2.IsClosed() {
		t.Error("all subscribers should be closed after hub stop")
	}
}
