package nakama

import (
	"cnptcg/internal/domain"
	"cnptcg/internal/session"
	"cnptcg/internal/setup"
)

// Everything on the wire is JSON. Client messages unmarshal into the
// *Message structs, server events marshal from the *Event structs or from
// the app payloads directly.

type submitDeckMessage struct {
	Cards []setup.DeckCard `json:"cards"`
}

type submitReikiMessage struct {
	Config setup.ReikiConfig `json:"config"`
}

type submitMulliganMessage struct {
	Indices []int `json:"indices"`
}

type gameCommandMessage struct {
	Command domain.Command `json:"command"`
}

type chatMessage struct {
	Text string `json:"text"`
}

type seatInfo struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

type setupStartedEvent struct {
	RoomID  string      `json:"room_id"`
	Players [2]seatInfo `json:"players"`
	Phase   setup.Phase `json:"phase"`
}

// presenceEvent announces an opponent disconnect or reconnect.
type presenceEvent struct {
	Seat         int   `json:"seat"`
	GraceSeconds int64 `json:"grace_seconds,omitempty"`
}

type commandRejectedEvent struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Command *domain.Command `json:"command,omitempty"`
}

// duelView decorates a duel snapshot with the position-indexed field view
// clients render from. The map holds each position's primary occupant only.
type duelView struct {
	*domain.Duel
	FieldMaps [2]map[domain.Position]*domain.FieldCard `json:"field_maps"`
}

func newDuelView(d *domain.Duel) *duelView {
	if d == nil {
		return nil
	}
	return &duelView{
		Duel: d,
		FieldMaps: [2]map[domain.Position]*domain.FieldCard{
			d.Players[0].FieldMap(),
			d.Players[1].FieldMap(),
		},
	}
}

type gameStartedEvent struct {
	Duel *duelView `json:"duel"`
}

type stateUpdateEvent struct {
	Seat    int            `json:"seat"`
	Command domain.Command `json:"command"`
	Duel    *duelView      `json:"duel"`
}

// roomSnapshot resyncs a rejoining client with everything they missed.
type roomSnapshot struct {
	RoomID     string      `json:"room_id"`
	Seat       int         `json:"seat"`
	Players    [2]seatInfo `json:"players"`
	Active     bool        `json:"active"`
	SetupPhase setup.Phase `json:"setup_phase,omitempty"`
	SetupDone  *[2]bool    `json:"setup_done,omitempty"`
	Duel       *duelView   `json:"duel,omitempty"`
}

func buildSnapshot(room *session.Room, seat int) roomSnapshot {
	snap := roomSnapshot{
		RoomID: room.ID,
		Seat:   seat,
		Active: room.Active,
		Duel:   newDuelView(room.Duel),
	}
	for i := range room.Seats {
		snap.Players[i] = seatInfo{Seat: i, PlayerID: room.Seats[i].PlayerID, Name: room.Seats[i].Name}
	}
	if room.Setup != nil {
		snap.SetupPhase = room.Setup.Phase()
		done := room.Setup.Progress()
		snap.SetupDone = &done
	}
	return snap
}

// matchLabel is the indexed JSON label for match listings.
type matchLabel struct {
	Game  string `json:"game"`
	State string `json:"state"` // setup, playing, ended
}
