package coordinator

import "sync"

// Attachments caches requirement label -> public URL per appointment. It is
// a rendering cache; the backend rows stay the source of truth.
type Attachments struct {
	mu sync.RWMutex
	m  map[string]map[string]string
}

func NewAttachments() *Attachments {
	return &Attachments{m: map[string]map[string]string{}}
}

func (a *Attachments) Set(appointmentID, label, url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m[appointmentID] == nil {
		a.m[appointmentID] = map[string]string{}
	}
	a.m[appointmentID][label] = url
}

func (a *Attachments) Get(appointmentID, label string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	url, ok := a.m[appointmentID][label]
	return url, ok
}

// Snapshot returns a copy that the caller may keep.
func (a *Attachments) Snapshot(appointmentID string) map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]string, len(a.m[appointmentID]))
	for k, v := range a.m[appointmentID] {
		out[k] = v
	}
	return out
}

func (a *Attachments) Replace(appointmentID string, m map[string]string) {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m[appointmentID] = cp
}

// Clear drops the appointment's cache, e.g. after a successful submission
// or when its screen goes away.
func (a *Attachments) Clear(appointmentID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.m, appointmentID)
}
