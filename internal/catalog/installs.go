package catalog

import (
	"slices"
	"sync"
)

// Installs tracks which apps each session has "installed". Like votes, the
// state is per session and in memory only.
type Installs struct {
	mu       sync.RWMutex
	sessions map[string]map[string]struct{}
}

// NewInstalls creates an empty install tracker.
func NewInstalls() *Installs {
	return &Installs{sessions: make(map[string]map[string]struct{})}
}

// Toggle flips the session's install state for an app and reports the new
// state.
func (t *Installs) Toggle(sessionID, appID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	apps, ok := t.sessions[sessionID]
	if !ok {
		apps = make(map[string]struct{})
		t.sessions[sessionID] = apps
	}

	if _, installed := apps[appID]; installed {
		delete(apps, appID)
		return false
	}
	apps[appID] = struct{}{}
	return true
}

// Installed reports whether the session has the app installed.
func (t *Installs) Installed(sessionID, appID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.sessions[sessionID][appID]
	return ok
}

// AppIDs returns the session's installed app IDs, sorted for stable output.
func (t *Installs) AppIDs(sessionID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.sessions[sessionID]))
	for id := range t.sessions[sessionID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Forget drops all install state for a session.
func (t *Installs) Forget(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}
