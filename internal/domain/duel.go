package domain

// Phase is a step of the five-phase turn cycle.
type Phase string

const (
	PhaseDraw   Phase = "DRAW"
	PhaseReiki  Phase = "REIKI"
	PhaseMain   Phase = "MAIN"
	PhaseBattle Phase = "BATTLE"
	PhaseEnd    Phase = "END"
)

var phaseOrder = [5]Phase{PhaseDraw, PhaseReiki, PhaseMain, PhaseBattle, PhaseEnd}

// Next returns the phase following p within a turn. From End the cycle is
// closed by EndTurn's seat switch, not by Next.
func (p Phase) Next() Phase {
	for i, ph := range phaseOrder {
		if ph == p && i+1 < len(phaseOrder) {
			return phaseOrder[i+1]
		}
	}
	return PhaseEnd
}

// NoWinner is the Winner value of an undecided duel.
const NoWinner = -1

// Duel is the full authoritative state of one game between two seats.
type Duel struct {
	Players   [2]Player `json:"players"`
	Turn      int       `json:"turn"` // seat index of the current player
	Phase     Phase     `json:"phase"`
	TurnCount int       `json:"turn_count"`
	Winner    int       `json:"winner"` // seat index, NoWinner while undecided
	StartedAt int64     `json:"started_at"`
}

// Decided reports whether a winner has been determined.
func (d *Duel) Decided() bool {
	return d.Winner != NoWinner
}

// Current returns the player whose turn it is.
func (d *Duel) Current() *Player {
	return &d.Players[d.Turn]
}

// Opponent returns the other seat index.
func Opponent(seat int) int {
	return 1 - seat
}
