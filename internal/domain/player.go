package domain

// Base is one of a player's three bases. Health tracks the remaining gauge;
// a base at zero health is destroyed and stays destroyed.
type Base struct {
	Position  Position `json:"position"`
	Health    int      `json:"health"`
	MaxHealth int      `json:"max_health"`
	Destroyed bool     `json:"destroyed"`
	Gauge     []Card   `json:"gauge"`
}

// ReikiLevels counts reiki per resource color. Value type on purpose so a
// player copy carries its own counts.
type ReikiLevels struct {
	Blue   int `json:"blue"`
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
}

// Of returns the count for a resource color.
func (r ReikiLevels) Of(c Color) int {
	switch c {
	case ColorBlue:
		return r.Blue
	case ColorRed:
		return r.Red
	case ColorYellow:
		return r.Yellow
	case ColorGreen:
		return r.Green
	}
	return 0
}

// Add bumps the count for a resource color by n.
func (r *ReikiLevels) Add(c Color, n int) {
	switch c {
	case ColorBlue:
		r.Blue += n
	case ColorRed:
		r.Red += n
	case ColorYellow:
		r.Yellow += n
	case ColorGreen:
		r.Green += n
	}
}

// Total sums all four colors.
func (r ReikiLevels) Total() int {
	return r.Blue + r.Red + r.Yellow + r.Green
}

// Player holds one seat's complete board state.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Hand      []Card `json:"hand"`
	Deck      []Card `json:"deck"`
	ReikiDeck []Card `json:"reiki_deck"`
	ReikiZone []Card `json:"reiki_zone"`

	Reiki     ReikiLevels `json:"reiki"`      // acquired, per color
	UsedReiki ReikiLevels `json:"used_reiki"` // spent this turn, per color
	Mana      int         `json:"mana"`       // acquired minus used, all colors
	MaxMana   int         `json:"max_mana"`   // acquired, all colors

	Field       []FieldCard `json:"field"`
	UnitZone    []Card      `json:"unit_zone"`
	SupportZone []Card      `json:"support_zone"`
	Trash       []Card      `json:"trash"`

	Bases [3]Base `json:"bases"`
}

// BaseAt returns a pointer into Bases for the given column, or nil.
func (p *Player) BaseAt(pos Position) *Base {
	for i := range p.Bases {
		if p.Bases[i].Position == pos {
			return &p.Bases[i]
		}
	}
	return nil
}

// PrimaryAt returns the index in Field of the primary occupant at a column,
// or -1 when the column is empty.
func (p *Player) PrimaryAt(pos Position) int {
	for i := range p.Field {
		if p.Field[i].Position == pos {
			return i
		}
	}
	return -1
}

// FieldMap is the column-indexed view of the field: primary occupant per
// column, derived from Field order.
func (p *Player) FieldMap() map[Position]*FieldCard {
	m := make(map[Position]*FieldCard, len(Positions))
	for _, pos := range Positions {
		if i := p.PrimaryAt(pos); i >= 0 {
			fc := p.Field[i]
			m[pos] = &fc
		}
	}
	return m
}

// RecomputeMana refreshes the derived mana totals from the reiki counts.
func (p *Player) RecomputeMana() {
	p.MaxMana = p.Reiki.Total()
	p.Mana = p.MaxMana - p.UsedReiki.Total()
}

// AvailableReiki returns acquired minus used for one color.
func (p *Player) AvailableReiki(c Color) int {
	return p.Reiki.Of(c) - p.UsedReiki.Of(c)
}

// DestroyedBases counts bases already destroyed.
func (p *Player) DestroyedBases() int {
	n := 0
	for i := range p.Bases {
		if p.Bases[i].Destroyed {
			n++
		}
	}
	return n
}

// TotalBaseHealth sums remaining health across all bases.
func (p *Player) TotalBaseHealth() int {
	total := 0
	for i := range p.Bases {
		total += p.Bases[i].Health
	}
	return total
}
