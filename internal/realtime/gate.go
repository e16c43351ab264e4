package realtime

// connectivityGate folds the device's network-reachability signal and the
// application foreground/background signal into the single question the
// manager cares about: should a connection be held open right now.
//
// online starts unknown-but-assumed-true so a fresh instance can connect
// before the first reachability callback arrives; foregrounded starts true
// for the same reason.
type connectivityGate struct {
	online       bool
	foregrounded bool
}

func newConnectivityGate() *connectivityGate {
	return &connectivityGate{online: true, foregrounded: true}
}

// SetOnline updates the reachability signal. Returns true if it changed.
func (g *connectivityGate) SetOnline(online bool) bool {
	if g.online == online {
		return false
	}
	g.online = online
	return true
}

// SetForeground updates the lifecycle signal. Returns true if it changed.
func (g *connectivityGate) SetForeground(foregrounded bool) bool {
	if g.foregrounded == foregrounded {
		return false
	}
	g.foregrounded = foregrounded
	return true
}

// ShouldBeConnected reports whether the client should hold a connection:
// reachable and in the foreground. Holding a socket open while backgrounded
// or offline burns radio on a session the backend will drop anyway.
func (g *connectivityGate) ShouldBeConnected() bool {
	return g.online && g.foregrounded
}

// Online returns the current reachability signal.
func (g *connectivityGate) Online() bool { return g.online }

// Foregrounded returns the current lifecycle signal.
func (g *connectivityGate) Foregrounded() bool { return g.foregrounded }
