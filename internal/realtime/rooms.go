package realtime

// roomSet tracks the ride rooms the client wants live updates for. The set
// records intent, not server state: it survives dropped connections so the
// manager can replay subscribe messages after every reconnect, and is only
// reduced by an explicit leave (or cleared on explicit disconnect).
type roomSet struct {
	members map[string]struct{}
	order   []string // join order, for deterministic replay
}

func newRoomSet() *roomSet {
	return &roomSet{members: make(map[string]struct{})}
}

// Add records intent to receive events for rideID. Returns false if the
// ride was already present.
func (r *roomSet) Add(rideID string) bool {
	if _, ok := r.members[rideID]; ok {
		return false
	}
	r.members[rideID] = struct{}{}
	r.order = append(r.order, rideID)
	return true
}

// Remove drops rideID from the set. Returns false if it was not present.
func (r *roomSet) Remove(rideID string) bool {
	if _, ok := r.members[rideID]; !ok {
		return false
	}
	delete(r.members, rideID)
	for i, id := range r.order {
		if id == rideID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether rideID is in the set.
func (r *roomSet) Contains(rideID string) bool {
	_, ok := r.members[rideID]
	return ok
}

// Snapshot returns the current members in join order.
func (r *roomSet) Snapshot() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of subscribed rides.
func (r *roomSet) Len() int {
	return len(r.members)
}

// Clear empties the set.
func (r *roomSet) Clear() {
	r.members = make(map[string]struct{})
	r.order = nil
}
