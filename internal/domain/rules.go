package domain

// Apply runs one command for the given seat against d and returns the
// resulting state. The input duel is never mutated; commands copy the zones
// they touch and share the rest. A non-nil error means the command was
// rejected and no state changed.
func Apply(d *Duel, cmd Command, seat int) (*Duel, error) {
	if seat < 0 || seat > 1 {
		return nil, ErrNotYourTurn
	}
	if d.Decided() {
		return nil, ErrDuelDecided
	}
	if seat != d.Turn {
		return nil, ErrNotYourTurn
	}

	next := *d

	var err error
	switch cmd.Kind {
	case CmdDraw:
		err = processDraw(&next, seat)
	case CmdPlayCard:
		err = processPlayCard(&next, seat, cmd)
	case CmdAttack:
		err = processAttack(&next, seat, cmd)
	case CmdEndTurn:
		err = processEndTurn(&next, seat)
	case CmdDrawReiki:
		err = processDrawReiki(&next, seat)
	case CmdMoveUnit:
		err = processMoveUnit(&next, seat, cmd)
	case CmdMarkUsed:
		err = processMarkUsed(&next, seat, cmd)
	case CmdUseReikiColor:
		err = processUseReikiColor(&next, seat, cmd)
	case CmdGaugeToHand:
		err = processGaugeToHand(&next, seat, cmd)
	case CmdSurrender:
		next.Winner = Opponent(seat)
	default:
		err = ErrUnknownCommand
	}
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// processDraw is the explicit draw: it refuses rather than burn a card.
// Deck-empty is checked before hand-full; neither leaves the deck touched.
func processDraw(d *Duel, seat int) error {
	p := &d.Players[seat]
	if len(p.Deck) == 0 {
		return ErrDeckEmpty
	}
	if len(p.Hand) >= HandLimit {
		return ErrHandFull
	}
	card := p.Deck[0]
	p.Deck = p.Deck[1:]
	p.Hand = append(cloneCards(p.Hand), card)
	return nil
}

// autoDraw is the turn-start draw: it always consumes the top card and
// discards it to the trash when the hand is full.
func autoDraw(d *Duel, seat int) {
	p := &d.Players[seat]
	if len(p.Deck) == 0 {
		return
	}
	card := p.Deck[0]
	p.Deck = p.Deck[1:]
	if len(p.Hand) < HandLimit {
		p.Hand = append(cloneCards(p.Hand), card)
	} else {
		p.Trash = append(cloneCards(p.Trash), card)
	}
}

func processPlayCard(d *Duel, seat int, cmd Command) error {
	p := &d.Players[seat]

	card, ok := takeCard(p, cmd.CardID)
	if !ok {
		return ErrCardNotFound
	}

	zone := cmd.TargetZone
	if zone == "" {
		if cmd.Position != "" {
			zone = ZoneField
		} else {
			switch card.Type {
			case CardTypeEvent:
				zone = ZoneTrash
			case CardTypeSupporter:
				zone = ZoneSupport
			default:
				zone = ZoneField
			}
		}
	}

	switch zone {
	case ZoneTrash:
		p.Trash = append(cloneCards(p.Trash), card)
	case ZoneSupport:
		p.SupportZone = append(cloneCards(p.SupportZone), card)
	case ZoneUnit:
		p.UnitZone = append(cloneCards(p.UnitZone), card)
	default:
		pos := cmd.Position
		if !ValidPosition(pos) {
			pos = PositionLeft
		}
		card.HasActed = false
		card.CanAct = false
		p.Field = append(cloneFieldCards(p.Field), FieldCard{Card: card, Position: pos})
	}
	return nil
}

func processAttack(d *Duel, seat int, cmd Command) error {
	if d.Phase != PhaseBattle {
		return ErrWrongPhase
	}
	p := &d.Players[seat]
	o := &d.Players[Opponent(seat)]

	ai := indexOfField(p.Field, cmd.CardID)
	if ai < 0 {
		return ErrNotYourTurn
	}
	if p.Field[ai].HasActed {
		return ErrAlreadyActed
	}
	if !p.Field[ai].CanAct {
		return ErrCannotAct
	}

	p.Field = cloneFieldCards(p.Field)
	attacker := &p.Field[ai]
	attacker.HasActed = true

	switch {
	case cmd.TargetID != "":
		ti := indexOfField(o.Field, cmd.TargetID)
		if ti < 0 {
			return ErrCardNotFound
		}
		o.Field = cloneFieldCards(o.Field)
		target := &o.Field[ti]

		// Simultaneous exchange: both sides hit with pre-damage power.
		atkBP, tgtBP := attacker.BP, target.BP
		target.HP -= atkBP
		attacker.HP -= tgtBP

		if target.HP <= 0 {
			o.Trash = append(cloneCards(o.Trash), o.Field[ti].Card)
			o.Field = removeFieldIndex(o.Field, ti)
		}
		if attacker.HP <= 0 {
			p.Trash = append(cloneCards(p.Trash), p.Field[ai].Card)
			p.Field = removeFieldIndex(p.Field, ai)
		}

	case cmd.Position != "":
		base := o.BaseAt(cmd.Position)
		if base == nil {
			return ErrNoTarget
		}
		if base.Destroyed {
			return ErrBaseDestroyed
		}
		base.Health -= attacker.BP
		if base.Health <= 0 {
			base.Health = 0
			base.Destroyed = true
		}

	default:
		return ErrNoTarget
	}

	checkWin(d)
	return nil
}

// processEndTurn advances exactly one phase. From End it hands the turn over:
// the incoming player's per-turn state resets and their automatic draw runs.
func processEndTurn(d *Duel, seat int) error {
	switch d.Phase {
	case PhaseBattle:
		d.Phase = PhaseEnd
	case PhaseEnd:
		d.Turn = Opponent(seat)
		d.TurnCount++
		d.Phase = PhaseDraw

		np := &d.Players[d.Turn]
		np.UsedReiki = ReikiLevels{}
		np.RecomputeMana()

		np.Field = cloneFieldCards(np.Field)
		for i := range np.Field {
			np.Field[i].HasActed = false
			np.Field[i].CanAct = true
		}
		np.Hand = cloneCards(np.Hand)
		for i := range np.Hand {
			np.Hand[i].HasActed = false
		}

		autoDraw(d, d.Turn)
		checkWin(d)
	default:
		d.Phase = d.Phase.Next()
	}
	return nil
}

func processDrawReiki(d *Duel, seat int) error {
	p := &d.Players[seat]
	if len(p.ReikiDeck) == 0 {
		return ErrReikiDeckEmpty
	}
	card := p.ReikiDeck[0]
	p.ReikiDeck = p.ReikiDeck[1:]
	p.ReikiZone = append(cloneCards(p.ReikiZone), card)
	p.Reiki.Add(card.Color, 1)
	p.RecomputeMana()
	return nil
}

func processMoveUnit(d *Duel, seat int, cmd Command) error {
	if d.Phase != PhaseMain {
		return ErrWrongPhase
	}
	p := &d.Players[seat]
	src := p.PrimaryAt(cmd.From)
	if src < 0 {
		return ErrSourceEmpty
	}
	if p.PrimaryAt(cmd.To) >= 0 {
		return ErrTargetOccupied
	}
	if !ValidPosition(cmd.To) {
		return ErrTargetOccupied
	}
	p.Field = cloneFieldCards(p.Field)
	p.Field[src].Position = cmd.To
	return nil
}

// processMarkUsed toggles the acted flag wherever the card sits. Clients use
// it to track abilities the engine does not model.
func processMarkUsed(d *Duel, seat int, cmd Command) error {
	p := &d.Players[seat]

	if i := indexOfCard(p.Hand, cmd.CardID); i >= 0 {
		p.Hand = cloneCards(p.Hand)
		p.Hand[i].HasActed = !p.Hand[i].HasActed
		return nil
	}
	if i := indexOfField(p.Field, cmd.CardID); i >= 0 {
		p.Field = cloneFieldCards(p.Field)
		p.Field[i].HasActed = !p.Field[i].HasActed
		return nil
	}
	if i := indexOfCard(p.SupportZone, cmd.CardID); i >= 0 {
		p.SupportZone = cloneCards(p.SupportZone)
		p.SupportZone[i].HasActed = !p.SupportZone[i].HasActed
		return nil
	}
	if i := indexOfCard(p.UnitZone, cmd.CardID); i >= 0 {
		p.UnitZone = cloneCards(p.UnitZone)
		p.UnitZone[i].HasActed = !p.UnitZone[i].HasActed
		return nil
	}
	return ErrCardNotFound
}

func processUseReikiColor(d *Duel, seat int, cmd Command) error {
	p := &d.Players[seat]
	if p.Reiki.Of(cmd.Color) == 0 {
		return ErrNoReikiOfColor
	}
	if p.UsedReiki.Of(cmd.Color) >= p.Reiki.Of(cmd.Color) {
		return ErrAllReikiUsed
	}
	p.UsedReiki.Add(cmd.Color, 1)
	p.RecomputeMana()
	return nil
}

// processGaugeToHand pulls one gauge card into the hand. Base health follows
// the gauge count, so this is how a player trades defense for cards.
func processGaugeToHand(d *Duel, seat int, cmd Command) error {
	p := &d.Players[seat]
	base := p.BaseAt(cmd.Position)
	if base == nil {
		return ErrInvalidIndex
	}
	if len(base.Gauge) == 0 {
		return ErrNoGaugeCards
	}
	if cmd.GaugeIndex < 0 || cmd.GaugeIndex >= len(base.Gauge) {
		return ErrInvalidIndex
	}
	if len(p.Hand) >= HandLimit {
		return ErrHandFull
	}

	card := base.Gauge[cmd.GaugeIndex]
	gauge := make([]Card, 0, len(base.Gauge)-1)
	gauge = append(gauge, base.Gauge[:cmd.GaugeIndex]...)
	gauge = append(gauge, base.Gauge[cmd.GaugeIndex+1:]...)
	base.Gauge = gauge
	p.Hand = append(cloneCards(p.Hand), card)

	base.Health = len(base.Gauge)
	if base.Health == 0 {
		base.Destroyed = true
	}

	checkWin(d)
	return nil
}

// checkWin settles the duel if any loss condition holds. Seats are checked in
// index order and the first losing seat settles it.
func checkWin(d *Duel) {
	if d.Decided() {
		return
	}
	for seat := range d.Players {
		p := &d.Players[seat]
		if p.DestroyedBases() >= BasesToWin || p.TotalBaseHealth() <= 0 || len(p.Deck) == 0 {
			d.Winner = Opponent(seat)
			return
		}
	}
}

// takeCard removes the card from whichever zone holds it, searching hand,
// field, support then unit. Every zone is purged so an id can never survive
// in two places.
func takeCard(p *Player, cardID string) (Card, bool) {
	var card Card
	found := false

	if i := indexOfCard(p.Hand, cardID); i >= 0 {
		card = p.Hand[i]
		found = true
	}
	if i := indexOfField(p.Field, cardID); i >= 0 && !found {
		card = p.Field[i].Card
		found = true
	}
	if i := indexOfCard(p.SupportZone, cardID); i >= 0 && !found {
		card = p.SupportZone[i]
		found = true
	}
	if i := indexOfCard(p.UnitZone, cardID); i >= 0 && !found {
		card = p.UnitZone[i]
		found = true
	}
	if !found {
		return Card{}, false
	}

	p.Hand = removeCardID(p.Hand, cardID)
	p.Field = removeFieldID(p.Field, cardID)
	p.SupportZone = removeCardID(p.SupportZone, cardID)
	p.UnitZone = removeCardID(p.UnitZone, cardID)
	return card, true
}

func indexOfCard(cards []Card, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfField(cards []FieldCard, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}

func removeCardID(cards []Card, id string) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func removeFieldID(cards []FieldCard, id string) []FieldCard {
	out := make([]FieldCard, 0, len(cards))
	for _, c := range cards {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func removeFieldIndex(cards []FieldCard, i int) []FieldCard {
	out := make([]FieldCard, 0, len(cards)-1)
	out = append(out, cards[:i]...)
	out = append(out, cards[i+1:]...)
	return out
}

func cloneCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

func cloneFieldCards(cards []FieldCard) []FieldCard {
	out := make([]FieldCard, len(cards))
	copy(out, cards)
	return out
}
