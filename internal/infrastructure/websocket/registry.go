package websocket

import "sync"

// Registry tracks which live connections are joined to which chat,
// independent of persistence. Membership is the only state it owns;
// MembersOf returns a snapshot so fan-out never observes a torn read.
type Registry struct {
	mu      sync.RWMutex
	members map[string]map[string]bool // chat id -> connection id set
	joined  map[string]map[string]bool // connection id -> chat id set
}

func NewRegistry() *Registry {
	return &Registry{
		members: make(map[string]map[string]bool),
		joined:  make(map[string]map[string]bool),
	}
}

// Join adds connID to chatID's member set. Idempotent.
func (r *Registry) Join(chatID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.members[chatID] == nil {
		r.members[chatID] = make(map[string]bool)
	}
	r.members[chatID][connID] = true

	if r.joined[connID] == nil {
		r.joined[connID] = make(map[string]bool)
	}
	r.joined[connID][chatID] = true
}

// Leave removes connID from chatID's member set. Empty member sets are
// dropped so the map does not accumulate dead chats.
func (r *Registry) Leave(chatID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(chatID, connID)
}

// LeaveAll releases every membership held by connID. Invoked on
// disconnect so stale members never leak.
func (r *Registry) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for chatID := range r.joined[connID] {
		r.leaveLocked(chatID, connID)
	}
}

func (r *Registry) leaveLocked(chatID, connID string) {
	if conns, ok := r.members[chatID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.members, chatID)
		}
	}
	if chats, ok := r.joined[connID]; ok {
		delete(chats, chatID)
		if len(chats) == 0 {
			delete(r.joined, connID)
		}
	}
}

// MembersOf returns the connection ids currently joined to chatID.
func (r *Registry) MembersOf(chatID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.members[chatID]
	out := make([]string, 0, len(conns))
	for connID := range conns {
		out = append(out, connID)
	}
	return out
}

// IsMember reports whether connID is joined to chatID.
func (r *Registry) IsMember(chatID, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.members[chatID]
	return ok && conns[connID]
}
