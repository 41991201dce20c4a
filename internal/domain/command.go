package domain

import "errors"

// CommandKind names a player action the rules engine understands.
type CommandKind string

const (
	CmdDraw          CommandKind = "draw"
	CmdPlayCard      CommandKind = "play_card"
	CmdAttack        CommandKind = "attack"
	CmdEndTurn       CommandKind = "end_turn"
	CmdDrawReiki     CommandKind = "draw_reiki"
	CmdMoveUnit      CommandKind = "move_unit"
	CmdMarkUsed      CommandKind = "mark_used"
	CmdUseReikiColor CommandKind = "use_reiki_color"
	CmdGaugeToHand   CommandKind = "gauge_to_hand"
	CmdSurrender     CommandKind = "surrender"
)

// Zone names a play-card destination.
type Zone string

const (
	ZoneTrash   Zone = "trash"
	ZoneSupport Zone = "support"
	ZoneUnit    Zone = "unit"
	ZoneField   Zone = "field"
)

// Command is one player action. Only the fields a kind needs are set.
type Command struct {
	Kind CommandKind `json:"kind"`

	CardID     string   `json:"card_id,omitempty"`     // play_card, attack (attacker), mark_used
	TargetZone Zone     `json:"target_zone,omitempty"` // play_card
	Position   Position `json:"position,omitempty"`    // play_card column, attack base, gauge_to_hand base
	TargetID   string   `json:"target_id,omitempty"`   // attack (enemy unit)
	From       Position `json:"from,omitempty"`        // move_unit
	To         Position `json:"to,omitempty"`          // move_unit
	Color      Color    `json:"color,omitempty"`       // use_reiki_color
	GaugeIndex int      `json:"gauge_index,omitempty"` // gauge_to_hand
}

// Command rejections. These are stable sentinels; the transport layer maps
// them to wire kinds via KindOf.
var (
	ErrDeckEmpty      = errors.New("no cards left in deck")
	ErrHandFull       = errors.New("hand is full")
	ErrCardNotFound   = errors.New("card not found")
	ErrWrongPhase     = errors.New("action not allowed in this phase")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrAlreadyActed   = errors.New("unit has already acted this turn")
	ErrCannotAct      = errors.New("unit cannot act")
	ErrNoTarget       = errors.New("no attack target specified")
	ErrBaseDestroyed  = errors.New("base is already destroyed")
	ErrReikiDeckEmpty = errors.New("no cards left in reiki deck")
	ErrSourceEmpty    = errors.New("no unit at source position")
	ErrTargetOccupied = errors.New("target position is occupied")
	ErrNoReikiOfColor = errors.New("no reiki of that color")
	ErrAllReikiUsed   = errors.New("all reiki of that color is used")
	ErrNoGaugeCards   = errors.New("base has no gauge cards")
	ErrInvalidIndex   = errors.New("index out of range")
	ErrDuelDecided    = errors.New("duel is already decided")
	ErrUnknownCommand = errors.New("unknown command")
)

// KindOf maps a rejection to its wire kind. Unrecognized errors report as
// Internal so clients never see raw server messages promoted to contract.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrDeckEmpty):
		return "DeckEmpty"
	case errors.Is(err, ErrHandFull):
		return "HandFull"
	case errors.Is(err, ErrCardNotFound):
		return "CardNotFound"
	case errors.Is(err, ErrWrongPhase):
		return "WrongPhase"
	case errors.Is(err, ErrNotYourTurn):
		return "NotYourTurn"
	case errors.Is(err, ErrAlreadyActed):
		return "AlreadyActed"
	case errors.Is(err, ErrCannotAct):
		return "CannotAct"
	case errors.Is(err, ErrNoTarget):
		return "NoTarget"
	case errors.Is(err, ErrBaseDestroyed):
		return "BaseDestroyed"
	case errors.Is(err, ErrReikiDeckEmpty):
		return "ReikiDeckEmpty"
	case errors.Is(err, ErrSourceEmpty):
		return "SourceEmpty"
	case errors.Is(err, ErrTargetOccupied):
		return "TargetOccupied"
	case errors.Is(err, ErrNoReikiOfColor):
		return "NoReikiOfColor"
	case errors.Is(err, ErrAllReikiUsed):
		return "AllReikiUsed"
	case errors.Is(err, ErrNoGaugeCards):
		return "NoGaugeCards"
	case errors.Is(err, ErrInvalidIndex):
		return "InvalidIndex"
	case errors.Is(err, ErrDuelDecided):
		return "DuelDecided"
	case errors.Is(err, ErrUnknownCommand):
		return "UnknownCommand"
	}
	return "Internal"
}
