package realtime

import (
	"fmt"
	"testing"
)

func TestRoomSet_AddRemoveContains(t *testing.T) {
	r := newRoomSet()

	if !r.Add("r1") {
		t.Error("Add(r1) = false, want true")
	}
	if r.Add("r1") {
		t.Error("second Add(r1) = true, want false")
	}
	if !r.Contains("r1") {
		t.Error("Contains(r1) = false")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	if !r.Remove("r1") {
		t.Error("Remove(r1) = false, want true")
	}
	if r.Remove("r1") {
		t.Error("second Remove(r1) = true, want false")
	}
	if r.Contains("r1") {
		t.Error("Contains(r1) = true after remove")
	}
}

func TestRoomSet_SnapshotPreservesJoinOrder(t *testing.T) {
	r := newRoomSet()
	r.Add("r3")
	r.Add("r1")
	r.Add("r2")
	r.Remove("r1")
	r.Add("r1")

	got := r.Snapshot()
	want := []string{"r3", "r2", "r1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}

	// Snapshot is a copy; mutating it must not affect the set.
	got[0] = "zzz"
	if r.Snapshot()[0] != "r3" {
		t.Error("Snapshot() returned a shared slice")
	}
}

func TestRoomSet_Clear(t *testing.T) {
	r := newRoomSet()
	r.Add("r1")
	r.Add("r2")
	r.Clear()

	if r.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", r.Len())
	}
	if len(r.Snapshot()) != 0 {
		t.Errorf("Snapshot() after Clear = %v, want empty", r.Snapshot())
	}
}
