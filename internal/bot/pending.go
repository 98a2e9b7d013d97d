package bot

import (
	"sync"
	"time"
)

// pendingUpload is the transient state of one admin's add sequence. Mode is
// empty until the admin picks single or series.
type pendingUpload struct {
	Code      string
	FileID    string
	Mode      string
	CreatedAt time.Time
}

// pendingStore tracks in-flight upload sequences keyed by admin user ID.
// Keying by user gives per-admin isolation; the mutex makes the map safe for
// the concurrent handler goroutines.
type pendingStore struct {
	mu sync.Mutex
	m  map[int64]*pendingUpload
}

func newPendingStore() *pendingStore {
	return &pendingStore{m: make(map[int64]*pendingUpload)}
}

// Put starts a new sequence for the user, replacing any previous one
// (last-write-wins).
func (p *pendingStore) Put(userID int64, code, fileID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[userID] = &pendingUpload{
		Code:      code,
		FileID:    fileID,
		CreatedAt: time.Now(),
	}
}

// SetMode records the mode choice for the user's pending sequence. Returns
// false when there is no pending sequence or the code no longer matches
// (a newer add command superseded the keyboard that was pressed).
func (p *pendingStore) SetMode(userID int64, code, mode string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.m[userID]
	if !ok || rec.Code != code {
		return false
	}
	rec.Mode = mode
	return true
}

// Take removes and returns the user's pending sequence.
func (p *pendingStore) Take(userID int64) (*pendingUpload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.m[userID]
	if ok {
		delete(p.m, userID)
	}
	return rec, ok
}

// Len returns the number of in-flight sequences.
func (p *pendingStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// SweepExpired removes sequences older than maxAge and reports how many were
// dropped. Abandoned sequences would otherwise live until process restart.
func (p *pendingStore) SweepExpired(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	p.mu.Lock()
	defer p.mu.Unlock()

	var swept int
	for userID, rec := range p.m {
		if rec.CreatedAt.Before(cutoff) {
			delete(p.m, userID)
			swept++
		}
	}
	return swept
}
