package app

import "sync"

// ConnGovernor tracks the process-wide count of live connections and rejects
// admissions past a hard ceiling. Rejection is final for that attempt; a
// reconnecting client is re-evaluated independently.
type ConnGovernor struct {
	mu      sync.Mutex
	max     int
	current int
}

func NewConnGovernor(max int) *ConnGovernor {
	return &ConnGovernor{max: max}
}

// Admit reserves a connection slot. It returns the running total after the
// decision and whether the connection may proceed. A rejected attempt never
// increments the counter.
func (g *ConnGovernor) Admit() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current >= g.max {
		return g.current, false
	}
	g.current++
	return g.current, true
}

// Release frees a slot previously reserved by Admit and returns the running
// total. Callers must invoke it exactly once per admitted connection.
func (g *ConnGovernor) Release() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current > 0 {
		g.current--
	}
	return g.current
}

// Current reports the number of admitted connections.
func (g *ConnGovernor) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
