package session

import (
	"time"

	"cnptcg/internal/domain"
	"cnptcg/internal/setup"
)

// Seat binds a logical player to their current transport session.
type Seat struct {
	PlayerID string
	Name     string

	SessionID     string
	Connected     bool
	GraceDeadline int64 // tick the seat forfeits at; 0 means no deadline
}

// Room is one duel's lifecycle container. It starts in setup, carries the
// duel once built, and lingers after deactivation until its purge deadline.
// Rooms are driven from a single match goroutine and need no locking.
type Room struct {
	ID    string
	Seats [2]Seat

	Setup *setup.Session
	Duel  *domain.Duel

	CreatedAt time.Time
	Active    bool
	PurgeAt   int64 // tick the room may be dropped at; 0 while active
}

// NewRoom creates an active room with both logical seats assigned.
func NewRoom(id string, p0ID, p0Name, p1ID, p1Name string, now time.Time) *Room {
	return &Room{
		ID: id,
		Seats: [2]Seat{
			{PlayerID: p0ID, Name: p0Name},
			{PlayerID: p1ID, Name: p1Name},
		},
		CreatedAt: now,
		Active:    true,
	}
}

// SeatByPlayer maps a logical player id to a seat index, or -1.
func (r *Room) SeatByPlayer(playerID string) int {
	for i := range r.Seats {
		if r.Seats[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

// SeatBySession maps a transport session id to a seat index, or -1.
func (r *Room) SeatBySession(sessionID string) int {
	for i := range r.Seats {
		if r.Seats[i].SessionID == sessionID {
			return i
		}
	}
	return -1
}

// Connect binds a seat to a transport session. Rebinding after a disconnect
// clears the grace deadline; clearing is idempotent, so a connect racing the
// deadline simply wins if it lands first.
func (r *Room) Connect(seat int, sessionID string) {
	s := &r.Seats[seat]
	s.SessionID = sessionID
	s.Connected = true
	s.GraceDeadline = 0
}

// MarkDisconnected flags a seat and arms its grace deadline. Returns the
// seat index, or -1 when the session is not seated here.
func (r *Room) MarkDisconnected(sessionID string, deadline int64) int {
	seat := r.SeatBySession(sessionID)
	if seat < 0 {
		return -1
	}
	s := &r.Seats[seat]
	s.Connected = false
	s.GraceDeadline = deadline
	return seat
}

// ExpiredGraceSeats lists seats whose grace deadline has passed.
func (r *Room) ExpiredGraceSeats(tick int64) []int {
	var out []int
	for i := range r.Seats {
		s := &r.Seats[i]
		if !s.Connected && s.GraceDeadline != 0 && tick >= s.GraceDeadline {
			out = append(out, i)
		}
	}
	return out
}

// AllDisconnected reports whether no seat has a live transport.
func (r *Room) AllDisconnected() bool {
	return !r.Seats[0].Connected && !r.Seats[1].Connected
}

// Deactivate retires the room and arms the retention deadline. Retained
// state stays readable until the purge.
func (r *Room) Deactivate(tick, retentionTicks int64) {
	if !r.Active {
		return
	}
	r.Active = false
	r.PurgeAt = tick + retentionTicks
}

// PurgeDue reports whether a deactivated room has outlived its retention.
func (r *Room) PurgeDue(tick int64) bool {
	return !r.Active && r.PurgeAt != 0 && tick >= r.PurgeAt
}
