package app

import (
	"errors"
	"math/rand"
	"time"

	"cnptcg/internal/domain"
	"cnptcg/internal/session"
	"cnptcg/internal/setup"
)

// Service contains the duel use-cases operating on room state. It is driven
// from each room's match goroutine; the room itself needs no extra locking.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with the provided rng or a time-seeded
// default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrNoSetup     = errors.New("room has no setup in progress")
	ErrNoDuel      = errors.New("duel has not started")
	ErrUnknownSeat = errors.New("seat is not part of this room")
)

// BeginSetup attaches a fresh setup session to the room.
func (s *Service) BeginSetup(room *session.Room) {
	room.Setup = setup.NewSession(
		room.Seats[0].PlayerID, room.Seats[0].Name,
		room.Seats[1].PlayerID, room.Seats[1].Name,
		s.rng,
	)
}

// SubmitDeck runs a seat's deck list through validation. Rejections are
// events, not errors: the submitter gets the full violation list while the
// opponent only sees stalled progress.
func (s *Service) SubmitDeck(room *session.Room, seat int, cards []setup.DeckCard) ([]Event, error) {
	if err := s.guardSetup(room, seat); err != nil {
		return nil, err
	}

	result, err := room.Setup.SubmitDeck(seat, cards)
	if err != nil {
		return nil, err
	}

	if !result.Valid {
		return []Event{{
			Kind:       EventDeckRejected,
			Payload:    DeckRejectedPayload{Seat: seat, Errors: result.Errors},
			Recipients: []string{room.Seats[seat].PlayerID},
		}}, nil
	}

	events := []Event{
		{
			Kind:       EventDeckAccepted,
			Payload:    DeckAcceptedPayload{Seat: seat, CardCount: result.CardCount},
			Recipients: []string{room.Seats[seat].PlayerID},
		},
		s.progressEvent(room),
	}
	return events, nil
}

// SubmitReikiConfig stores a seat's reiki split. When the second split lands
// the turn order is rolled and both opening hands go out.
func (s *Service) SubmitReikiConfig(room *session.Room, seat int, cfg setup.ReikiConfig) ([]Event, error) {
	if err := s.guardSetup(room, seat); err != nil {
		return nil, err
	}

	if err := room.Setup.SubmitReikiConfig(seat, cfg); err != nil {
		return nil, err
	}

	events := []Event{s.progressEvent(room)}
	if room.Setup.Phase() == setup.PhaseMulligan {
		events = append(events, Event{
			Kind: EventHandsDealt,
			Payload: HandsDealtPayload{
				FirstSeat: room.Setup.FirstPlayer(),
				Hands: [2][]domain.Card{
					room.Setup.PlayerAt(0).InitialHand,
					room.Setup.PlayerAt(1).InitialHand,
				},
			},
		})
	}
	return events, nil
}

// SubmitMulligan applies a seat's mulligan selection.
func (s *Service) SubmitMulligan(room *session.Room, seat int, indices []int) ([]Event, error) {
	if err := s.guardSetup(room, seat); err != nil {
		return nil, err
	}

	if err := room.Setup.SubmitMulligan(seat, indices); err != nil {
		return nil, err
	}

	events := []Event{s.progressEvent(room)}
	if room.Setup.Phase() == setup.PhaseReady {
		events = append(events, Event{
			Kind:    EventSetupComplete,
			Payload: SetupCompletePayload{Phase: setup.PhaseReady},
		})
	}
	return events, nil
}

// MarkReady records a seat's confirmation; the second one builds the duel
// and starts the game.
func (s *Service) MarkReady(room *session.Room, seat int, now int64) ([]Event, error) {
	if err := s.guardSetup(room, seat); err != nil {
		return nil, err
	}

	if err := room.Setup.MarkReady(seat); err != nil {
		return nil, err
	}

	if !room.Setup.BothReady() {
		return []Event{s.progressEvent(room)}, nil
	}

	duel, err := room.Setup.BuildDuel(now)
	if err != nil {
		return nil, err
	}
	room.Duel = duel
	room.Setup = nil

	return []Event{{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{Duel: duel},
	}}, nil
}

// HandleCommand runs one game command through the rules engine and commits
// the result. A rejection leaves the room untouched and is returned as the
// error for a recipient-only reply.
func (s *Service) HandleCommand(room *session.Room, seat int, cmd domain.Command) ([]Event, error) {
	if seat < 0 || seat > 1 {
		return nil, ErrUnknownSeat
	}
	if room.Duel == nil {
		return nil, ErrNoDuel
	}

	next, err := domain.Apply(room.Duel, cmd, seat)
	if err != nil {
		return nil, err
	}
	room.Duel = next

	events := []Event{{
		Kind:    EventStateUpdate,
		Payload: StateUpdatePayload{Seat: seat, Command: cmd, Duel: next},
	}}

	if next.Decided() {
		reason := EndReasonVictory
		if cmd.Kind == domain.CmdSurrender {
			reason = EndReasonSurrender
		}
		events = append(events, s.gameEndedEvent(room, next.Winner, reason))
	}
	return events, nil
}

// ForfeitSeat ends the duel against a seat that ran out its reconnect grace.
// Forfeiting an already decided or never-started duel emits nothing.
func (s *Service) ForfeitSeat(room *session.Room, seat int) []Event {
	if room.Duel == nil || room.Duel.Decided() || seat < 0 || seat > 1 {
		return nil
	}
	next := *room.Duel
	next.Winner = domain.Opponent(seat)
	room.Duel = &next

	return []Event{s.gameEndedEvent(room, next.Winner, EndReasonDisconnectTimeout)}
}

// Chat relays an in-room message.
func (s *Service) Chat(room *session.Room, seat int, text string) ([]Event, error) {
	if seat < 0 || seat > 1 {
		return nil, ErrUnknownSeat
	}
	return []Event{{
		Kind:    EventChat,
		Payload: ChatPayload{Seat: seat, Name: room.Seats[seat].Name, Text: text},
	}}, nil
}

func (s *Service) guardSetup(room *session.Room, seat int) error {
	if seat < 0 || seat > 1 {
		return ErrUnknownSeat
	}
	if room.Setup == nil {
		return ErrNoSetup
	}
	return nil
}

func (s *Service) progressEvent(room *session.Room) Event {
	return Event{
		Kind: EventSetupProgress,
		Payload: SetupProgressPayload{
			Phase: room.Setup.Phase(),
			Done:  room.Setup.Progress(),
		},
	}
}

func (s *Service) gameEndedEvent(room *session.Room, winnerSeat int, reason string) Event {
	return Event{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			WinnerSeat: winnerSeat,
			WinnerID:   room.Seats[winnerSeat].PlayerID,
			Reason:     reason,
		},
	}
}
