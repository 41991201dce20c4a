package setup

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"cnptcg/internal/domain"
)

// Phase is a stage of the pre-game pipeline. Stages advance only when both
// players have completed the current one.
type Phase string

const (
	PhaseDeckInput      Phase = "deck_input"
	PhaseReikiSelection Phase = "reiki_selection"
	PhaseMulligan       Phase = "mulligan"
	PhaseGaugePlacement Phase = "gauge_placement"
	PhaseReady          Phase = "game_ready"
)

var (
	ErrWrongPhase      = errors.New("submission not allowed in this setup phase")
	ErrUnknownPlayer   = errors.New("player is not part of this setup")
	ErrInvalidMulligan = errors.New("invalid mulligan selection")
	ErrNotReady        = errors.New("setup is not complete")
)

// PlayerState tracks one player's progress through the pipeline.
type PlayerState struct {
	PlayerID string
	Name     string

	Deck   []domain.Card // validated and converted; empty until accepted
	Config *ReikiConfig

	InitialHand   []domain.Card
	FinalHand     []domain.Card
	MulliganDone  bool
	Gauge         [domain.BaseCount][]domain.Card
	RemainingDeck []domain.Card

	Ready bool
}

// Session runs the two-player setup pipeline for one room.
type Session struct {
	phase   Phase
	players [2]PlayerState
	first   int // seat of the first player, -1 until chosen
	rng     *rand.Rand
}

// NewSession starts a setup session in the deck-input phase. A nil rng gets
// a time-seeded default.
func NewSession(p0ID, p0Name, p1ID, p1Name string, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		phase: PhaseDeckInput,
		players: [2]PlayerState{
			{PlayerID: p0ID, Name: p0Name},
			{PlayerID: p1ID, Name: p1Name},
		},
		first: -1,
		rng:   rng,
	}
}

// Phase returns the current pipeline stage.
func (s *Session) Phase() Phase {
	return s.phase
}

// SeatOf maps a player id to their seat, or -1.
func (s *Session) SeatOf(playerID string) int {
	for i := range s.players {
		if s.players[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

// PlayerAt exposes one seat's setup progress.
func (s *Session) PlayerAt(seat int) *PlayerState {
	return &s.players[seat]
}

// FirstPlayer returns the chosen first seat, or -1 before the turn-order roll.
func (s *Session) FirstPlayer() int {
	return s.first
}

// SubmitDeck validates and stores a seat's deck list. An invalid list is
// reported in full and leaves the seat without a deck; resubmission is
// allowed until both decks are accepted.
func (s *Session) SubmitDeck(seat int, cards []DeckCard) (DeckValidation, error) {
	if seat < 0 || seat > 1 {
		return DeckValidation{}, ErrUnknownPlayer
	}
	if s.phase != PhaseDeckInput {
		return DeckValidation{}, ErrWrongPhase
	}

	result := ValidateDeck(cards)
	if !result.Valid {
		return result, nil
	}

	s.players[seat].Deck = BuildDeck(cards)

	if len(s.players[0].Deck) > 0 && len(s.players[1].Deck) > 0 {
		s.phase = PhaseReikiSelection
	}
	return result, nil
}

// SubmitReikiConfig stores a seat's reiki split. When both are in, the
// session rolls turn order and deals the opening hands.
func (s *Session) SubmitReikiConfig(seat int, cfg ReikiConfig) error {
	if seat < 0 || seat > 1 {
		return ErrUnknownPlayer
	}
	if s.phase != PhaseReikiSelection {
		return ErrWrongPhase
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.players[seat].Config = &cfg

	if s.players[0].Config != nil && s.players[1].Config != nil {
		s.first = s.rng.Intn(2)
		for i := range s.players {
			s.dealOpeningHand(i)
		}
		s.phase = PhaseMulligan
	}
	return nil
}

func (s *Session) dealOpeningHand(seat int) {
	p := &s.players[seat]
	deck := append([]domain.Card(nil), p.Deck...)
	s.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	p.InitialHand = deck[:domain.OpeningHandSize]
	p.RemainingDeck = deck[domain.OpeningHandSize:]
}

// SubmitMulligan returns the selected opening-hand cards to the deck,
// reshuffles, and redraws the same count. An empty selection keeps the hand.
// When both players are done the gauges are placed and setup is complete.
func (s *Session) SubmitMulligan(seat int, indices []int) error {
	if seat < 0 || seat > 1 {
		return ErrUnknownPlayer
	}
	if s.phase != PhaseMulligan {
		return ErrWrongPhase
	}
	p := &s.players[seat]
	if p.MulliganDone {
		return ErrWrongPhase
	}

	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.InitialHand) {
			return fmt.Errorf("%w: index %d out of range", ErrInvalidMulligan, idx)
		}
		if seen[idx] {
			return fmt.Errorf("%w: duplicate index %d", ErrInvalidMulligan, idx)
		}
		seen[idx] = true
	}

	var keep, back []domain.Card
	for i, card := range p.InitialHand {
		if seen[i] {
			back = append(back, card)
		} else {
			keep = append(keep, card)
		}
	}

	deck := append(append([]domain.Card(nil), p.RemainingDeck...), back...)
	s.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	p.FinalHand = append(keep, deck[:len(indices)]...)
	p.RemainingDeck = deck[len(indices):]
	p.MulliganDone = true

	if s.players[0].MulliganDone && s.players[1].MulliganDone {
		s.phase = PhaseGaugePlacement
		for i := range s.players {
			s.placeGauge(i)
		}
		s.phase = PhaseReady
	}
	return nil
}

// placeGauge deals two shuffled cards face down per base.
func (s *Session) placeGauge(seat int) {
	p := &s.players[seat]
	deck := append([]domain.Card(nil), p.RemainingDeck...)
	s.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	next := 0
	for bi := 0; bi < domain.BaseCount; bi++ {
		p.Gauge[bi] = append([]domain.Card(nil), deck[next:next+domain.GaugePerBase]...)
		next += domain.GaugePerBase
	}
	p.RemainingDeck = deck[next:]
}

// MarkReady records a seat's final confirmation.
func (s *Session) MarkReady(seat int) error {
	if seat < 0 || seat > 1 {
		return ErrUnknownPlayer
	}
	if s.phase != PhaseReady {
		return ErrWrongPhase
	}
	s.players[seat].Ready = true
	return nil
}

// BothReady reports whether the game-start broadcast may fire.
func (s *Session) BothReady() bool {
	return s.phase == PhaseReady && s.players[0].Ready && s.players[1].Ready
}

// Progress reports, per seat, whether the current stage's submission is in.
// The transport layer forwards this after every one-sided submission.
func (s *Session) Progress() [2]bool {
	var done [2]bool
	for i := range s.players {
		p := &s.players[i]
		switch s.phase {
		case PhaseDeckInput:
			done[i] = len(p.Deck) > 0
		case PhaseReikiSelection:
			done[i] = p.Config != nil
		case PhaseMulligan:
			done[i] = p.MulliganDone
		default:
			done[i] = p.Ready
		}
	}
	return done
}

// BuildDuel assembles the initial duel once setup is complete. The first
// player opens on the draw phase of turn one.
func (s *Session) BuildDuel(now int64) (*domain.Duel, error) {
	if s.phase != PhaseReady {
		return nil, ErrNotReady
	}

	d := &domain.Duel{
		Turn:      s.first,
		Phase:     domain.PhaseDraw,
		TurnCount: 1,
		Winner:    domain.NoWinner,
		StartedAt: now,
	}

	for seat := range s.players {
		ps := &s.players[seat]
		p := &d.Players[seat]
		p.ID = ps.PlayerID
		p.Name = ps.Name
		p.Hand = append([]domain.Card(nil), ps.FinalHand...)
		p.Deck = append([]domain.Card(nil), ps.RemainingDeck...)
		p.ReikiDeck = BuildReikiDeck(*ps.Config, s.rng)
		// Acquired reiki opens at the configured split; draws add on top.
		p.Reiki = ps.Config.Levels()
		for bi, pos := range domain.Positions {
			p.Bases[bi] = domain.Base{
				Position:  pos,
				Health:    domain.BaseMaxHealth,
				MaxHealth: domain.BaseMaxHealth,
				Gauge:     append([]domain.Card(nil), ps.Gauge[bi]...),
			}
		}
	}
	return d, nil
}
