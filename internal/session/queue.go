package session

import "time"

// QueueEntry is one participant waiting to be paired.
type QueueEntry struct {
	UserID     string
	Username   string
	EnqueuedAt time.Time
}

// Queue is a strict FIFO matchmaking queue. It is not safe for concurrent
// use; the Manager serializes access.
type Queue struct {
	entries []QueueEntry
}

// Enqueue appends an entry.
func (q *Queue) Enqueue(e QueueEntry) {
	q.entries = append(q.entries, e)
}

// PushFront returns an entry to the head of the queue. Used when a popped
// entry could not be placed in a room; the wait it already served is kept.
func (q *Queue) PushFront(e QueueEntry) {
	q.entries = append([]QueueEntry{e}, q.entries...)
}

// PopOldest removes and returns the longest-waiting entry.
func (q *Queue) PopOldest() (QueueEntry, bool) {
	if len(q.entries) == 0 {
		return QueueEntry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

// Remove drops the entry for a user, if queued.
func (q *Queue) Remove(userID string) bool {
	for i, e := range q.entries {
		if e.UserID == userID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether a user is queued.
func (q *Queue) Contains(userID string) bool {
	for _, e := range q.entries {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// Sweep drops entries older than maxAge and returns how many were purged.
func (q *Queue) Sweep(now time.Time, maxAge time.Duration) int {
	kept := q.entries[:0]
	purged := 0
	for _, e := range q.entries {
		if now.Sub(e.EnqueuedAt) > maxAge {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return purged
}

// Len returns the number of waiting entries.
func (q *Queue) Len() int {
	return len(q.entries)
}
