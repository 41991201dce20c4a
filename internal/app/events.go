package app

import (
	"cnptcg/internal/domain"
	"cnptcg/internal/setup"
)

// EventKind identifies emitted app events for transport dispatch.
type EventKind string

const (
	EventSetupProgress EventKind = "setup_progress"
	EventDeckAccepted  EventKind = "deck_accepted"
	EventDeckRejected  EventKind = "deck_rejected"
	EventHandsDealt    EventKind = "hands_dealt"
	EventSetupComplete EventKind = "setup_complete"
	EventGameStarted   EventKind = "game_started"
	EventStateUpdate   EventKind = "state_update"
	EventGameEnded     EventKind = "game_ended"
	EventChat          EventKind = "chat"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

// SetupProgressPayload reports, per seat, whether the current setup stage's
// submission is in.
type SetupProgressPayload struct {
	Phase setup.Phase `json:"phase"`
	Done  [2]bool     `json:"done"`
}

type DeckAcceptedPayload struct {
	Seat      int `json:"seat"`
	CardCount int `json:"card_count"`
}

type DeckRejectedPayload struct {
	Seat   int      `json:"seat"`
	Errors []string `json:"errors"`
}

// HandsDealtPayload carries the turn-order roll and both opening hands.
// All state is open information in this mode.
type HandsDealtPayload struct {
	FirstSeat int              `json:"first_seat"`
	Hands     [2][]domain.Card `json:"hands"`
}

type SetupCompletePayload struct {
	Phase setup.Phase `json:"phase"`
}

type GameStartedPayload struct {
	Duel *domain.Duel `json:"duel"`
}

// StateUpdatePayload is the full post-command snapshot plus what caused it.
type StateUpdatePayload struct {
	Seat    int            `json:"seat"`
	Command domain.Command `json:"command"`
	Duel    *domain.Duel   `json:"duel"`
}

// GameEndedPayload names the winner and why the duel ended.
type GameEndedPayload struct {
	WinnerSeat int    `json:"winner_seat"`
	WinnerID   string `json:"winner_id"`
	Reason     string `json:"reason"` // victory, surrender, disconnect_timeout
}

type ChatPayload struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Game-end reasons on the wire.
const (
	EndReasonVictory           = "victory"
	EndReasonSurrender         = "surrender"
	EndReasonDisconnectTimeout = "disconnect_timeout"
)
