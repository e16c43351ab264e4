package realtime

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/gowrishetty09/driverlink/internal/protocol"
)

func point(lat float64) protocol.LocationPoint {
	return protocol.LocationPoint{Latitude: lat, Longitude: -lat, Timestamp: time.Now()}
}

func TestBatcher_RecordAndDrainInOrder(t *testing.T) {
	b := newLocationBatcher(10, time.Minute, func() {})

	b.Record(point(1))
	b.Record(point(2))
	b.Record(point(3))

	points := b.Drain()
	if len(points) != 3 {
		t.Fatalf("Drain() returned %d points, want 3", len(points))
	}
	for i, p := range points {
		if p.Latitude != float64(i+1) {
			t.Errorf("points[%d].Latitude = %v, want %v", i, p.Latitude, i+1)
		}
	}
	if b.Len() != 0 {
		t.Errorf("Len() after drain = %d, want 0", b.Len())
	}
}

func TestBatcher_OverflowDropsOldest(t *testing.T) {
	b := newLocationBatcher(3, time.Minute, func() {})

	for i := 1; i <= 5; i++ {
		b.Record(point(float64(i)))
	}

	points := b.Drain()
	if len(points) != 3 {
		t.Fatalf("Drain() returned %d points, want 3", len(points))
	}
	if points[0].Latitude != 3 || points[2].Latitude != 5 {
		t.Errorf("oldest points not dropped: got latitudes %v, %v, %v",
			points[0].Latitude, points[1].Latitude, points[2].Latitude)
	}
}

func TestBatcher_RequeuePutsPointsBackInFront(t *testing.T) {
	b := newLocationBatcher(10, time.Minute, func() {})

	b.Record(point(1))
	drained := b.Drain()
	b.Record(point(2))
	b.Requeue(drained)

	points := b.Drain()
	if len(points) != 2 {
		t.Fatalf("Drain() returned %d points, want 2", len(points))
	}
	if points[0].Latitude != 1 || points[1].Latitude != 2 {
		t.Errorf("requeued points out of order: %v, %v", points[0].Latitude, points[1].Latitude)
	}
}

func TestBatcher_SetBackgroundModeTransitions(t *testing.T) {
	b := newLocationBatcher(10, time.Minute, func() {})
	defer b.Stop()

	if b.SetBackgroundMode(false) {
		t.Error("foreground->foreground should not request a flush")
	}
	if b.SetBackgroundMode(true) {
		t.Error("entering background should not request a flush")
	}
	if !b.InBackground() {
		t.Error("InBackground() = false after entering background")
	}
	if b.SetBackgroundMode(true) {
		t.Error("background->background should not request a flush")
	}
	if !b.SetBackgroundMode(false) {
		t.Error("leaving background should request an immediate flush")
	}
	if b.InBackground() {
		t.Error("InBackground() = true after leaving background")
	}
}

func TestBatcher_BackgroundTimerFlushes(t *testing.T) {
	var flushes int32
	b := newLocationBatcher(10, 10*time.Millisecond, func() {
		atomic.AddInt32(&flushes, 1)
	})
	defer b.Stop()

	b.SetBackgroundMode(true)
	time.Sleep(60 * time.Millisecond)

	if n := atomic.LoadInt32(&flushes); n < 2 {
		t.Errorf("flush callback fired %d times, want at least 2", n)
	}

	b.SetBackgroundMode(false)
	atomic.StoreInt32(&flushes, 0)
	time.Sleep(40 * time.Millisecond)

	if n := atomic.LoadInt32(&flushes); n != 0 {
		t.Errorf("flush callback fired %d times after leaving background, want 0", n)
	}
}

func TestBatcher_StopCancelsTimerAndClearsBuffer(t *testing.T) {
	var flushes int32
	b := newLocationBatcher(10, 10*time.Millisecond, func() {
		atomic.AddInt32(&flushes, 1)
	})

	b.SetBackgroundMode(true)
	b.Record(point(1))
	b.Stop()

	atomic.StoreInt32(&flushes, 0)
	time.Sleep(40 * time.Millisecond)

	if n := atomic.LoadInt32(&flushes); n != 0 {
		t.Errorf("flush callback fired %d times after Stop, want 0", n)
	}
	if b.Len() != 0 {
		t.Errorf("Len() after Stop = %d, want 0", b.Len())
	}
	if b.InBackground() {
		t.Error("InBackground() = true after Stop")
	}
}
