package session

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrAlreadyMatched rejects matchmaking from a user already in a room.
	ErrAlreadyMatched = errors.New("user is already in a room")
)

// MatchResult is the outcome of one FindMatch call.
type MatchResult struct {
	Matched  bool
	Opponent QueueEntry // set when Matched
}

// Manager owns the matchmaking queue and the participant-to-room map. It is
// process scoped and mutex guarded: RPC goroutines and match goroutines all
// go through it.
type Manager struct {
	mu      sync.Mutex
	queue   Queue
	roomOf  map[string]string // userID -> roomID
	maxWait time.Duration
}

// NewManager creates a Manager whose queue entries go stale after maxWait.
func NewManager(maxWait time.Duration) *Manager {
	return &Manager{
		roomOf:  make(map[string]string),
		maxWait: maxWait,
	}
}

// FindMatch pairs the caller with the longest-waiting other participant, or
// enqueues them. Stale entries are swept opportunistically first. A user
// already in a room is rejected; a user already queued stays queued once.
func (m *Manager) FindMatch(userID, username string, now time.Time) (MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue.Sweep(now, m.maxWait)

	if _, ok := m.roomOf[userID]; ok {
		return MatchResult{}, ErrAlreadyMatched
	}
	if m.queue.Contains(userID) {
		return MatchResult{}, nil
	}

	if opponent, ok := m.queue.PopOldest(); ok {
		return MatchResult{Matched: true, Opponent: opponent}, nil
	}

	m.queue.Enqueue(QueueEntry{UserID: userID, Username: username, EnqueuedAt: now})
	return MatchResult{}, nil
}

// Requeue puts a popped entry back at the head of the queue so a failed
// pairing does not lose the waiting player or their place in line.
func (m *Manager) Requeue(e QueueEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.PushFront(e)
}

// Cancel removes the user's queue entry, sweeping stale entries on the way
// so abandoned neighbors do not linger until the next pairing attempt.
// Cancelling a user who is not queued is a no-op reported as false.
func (m *Manager) Cancel(userID string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.Sweep(now, m.maxWait)
	return m.queue.Remove(userID)
}

// Bind records which room the given users now belong to.
func (m *Manager) Bind(roomID string, userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, uid := range userIDs {
		m.roomOf[uid] = roomID
	}
}

// Release forgets every binding to the given room.
func (m *Manager) Release(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for uid, rid := range m.roomOf {
		if rid == roomID {
			delete(m.roomOf, uid)
		}
	}
}

// RoomOf returns the room a user is bound to.
func (m *Manager) RoomOf(userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rid, ok := m.roomOf[userID]
	return rid, ok
}

// QueueLen reports how many participants are waiting.
func (m *Manager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}
