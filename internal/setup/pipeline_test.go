package setup

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"cnptcg/internal/domain"
)

// legalDeck builds a 50-card list: 12 catalog cards x4 plus 2 singles.
func legalDeck(prefix string) []DeckCard {
	var cards []DeckCard
	for i := 0; i < 12; i++ {
		for c := 0; c < 4; c++ {
			cards = append(cards, DeckCard{
				ID:    fmt.Sprintf("%s-unit-%d", prefix, i),
				Name:  fmt.Sprintf("Unit %d", i),
				Type:  string(domain.CardTypeUnit),
				Cost:  i % 5,
				BP:    1000 + i,
				Color: "red",
			})
		}
	}
	cards = append(cards,
		DeckCard{ID: prefix + "-event", Name: "Event", Type: string(domain.CardTypeEvent), Cost: 1, Color: "blue"},
		DeckCard{ID: prefix + "-supporter", Name: "Supporter", Type: string(domain.CardTypeSupporter), Cost: 2, Color: "green"},
	)
	return cards
}

func validConfig() ReikiConfig {
	return ReikiConfig{Blue: 4, Red: 4, Yellow: 4, Green: 3, Total: 15}
}

func TestValidateDeck(t *testing.T) {
	t.Run("Legal", func(t *testing.T) {
		res := ValidateDeck(legalDeck("d"))
		if !res.Valid || len(res.Errors) != 0 || res.CardCount != 50 {
			t.Fatalf("legal deck rejected: %+v", res)
		}
	})

	t.Run("WrongSize", func(t *testing.T) {
		res := ValidateDeck(legalDeck("d")[:49])
		if res.Valid {
			t.Fatal("49-card deck accepted")
		}
		if res.CardCount != 49 {
			t.Fatalf("card count = %d, want 49", res.CardCount)
		}
	})

	t.Run("FifthCopy", func(t *testing.T) {
		cards := legalDeck("d")
		cards[49] = cards[0] // fifth copy of unit 0, still 50 cards
		res := ValidateDeck(cards)
		if res.Valid {
			t.Fatal("deck with five copies accepted")
		}
		found := false
		for _, e := range res.Errors {
			if strings.Contains(e, "copies") {
				found = true
			}
		}
		if !found {
			t.Fatalf("no copy-limit error reported: %v", res.Errors)
		}
	})

	t.Run("CollectsAllErrors", func(t *testing.T) {
		cards := legalDeck("d")
		cards[0].Type = "TRAP"
		cards[1].Name = ""
		cards[2].Cost = -3
		res := ValidateDeck(cards)
		if res.Valid {
			t.Fatal("invalid deck accepted")
		}
		if len(res.Errors) < 3 {
			t.Fatalf("expected every violation reported, got %v", res.Errors)
		}
	})
}

func TestBuildDeckMintsInstanceIDs(t *testing.T) {
	deck := BuildDeck(legalDeck("d"))
	seen := make(map[string]bool, len(deck))
	for _, c := range deck {
		if c.ID == "" || seen[c.ID] {
			t.Fatalf("instance id %q missing or duplicated", c.ID)
		}
		seen[c.ID] = true
		if c.CatalogID == "" {
			t.Fatal("catalog id lost in conversion")
		}
		if c.Type == domain.CardTypeUnit && c.HP != c.BP {
			t.Fatalf("unit HP = %d, want BP %d", c.HP, c.BP)
		}
	}
}

func TestReikiConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ReikiConfig
		ok   bool
	}{
		{"Valid", validConfig(), true},
		{"SumTooLow", ReikiConfig{Blue: 4, Red: 4, Yellow: 4, Green: 2, Total: 15}, false},
		{"SumTooHigh", ReikiConfig{Blue: 5, Red: 4, Yellow: 4, Green: 3, Total: 15}, false},
		{"Negative", ReikiConfig{Blue: -1, Red: 8, Yellow: 4, Green: 4, Total: 15}, false},
		{"WrongTotal", ReikiConfig{Blue: 4, Red: 4, Yellow: 4, Green: 3, Total: 16}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if (err == nil) != test.ok {
				t.Fatalf("Validate() = %v, want ok=%t", err, test.ok)
			}
		})
	}
}

func TestBuildReikiDeck(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	deck := BuildReikiDeck(validConfig(), rng)

	if len(deck) != domain.ReikiDeckSize {
		t.Fatalf("reiki deck size = %d, want %d", len(deck), domain.ReikiDeckSize)
	}
	counts := map[domain.Color]int{}
	for _, c := range deck {
		counts[c.Color]++
		if c.Cost != 0 || c.BP != 0 || c.Type != domain.CardTypeEvent {
			t.Fatalf("reiki card has combat stats or cost: %+v", c)
		}
	}
	want := map[domain.Color]int{domain.ColorBlue: 4, domain.ColorRed: 4, domain.ColorYellow: 4, domain.ColorGreen: 3}
	for color, n := range want {
		if counts[color] != n {
			t.Fatalf("%s count = %d, want %d", color, counts[color], n)
		}
	}
}

func newReadySession(t *testing.T, seed int64, mulligans [2][]int) *Session {
	t.Helper()
	s := NewSession("p0", "Alice", "p1", "Bob", rand.New(rand.NewSource(seed)))

	for seat := 0; seat < 2; seat++ {
		res, err := s.SubmitDeck(seat, legalDeck(fmt.Sprintf("s%d", seat)))
		if err != nil || !res.Valid {
			t.Fatalf("seat %d deck: err=%v res=%+v", seat, err, res)
		}
	}
	if s.Phase() != PhaseReikiSelection {
		t.Fatalf("phase after decks = %s", s.Phase())
	}
	for seat := 0; seat < 2; seat++ {
		if err := s.SubmitReikiConfig(seat, validConfig()); err != nil {
			t.Fatalf("seat %d config: %v", seat, err)
		}
	}
	if s.Phase() != PhaseMulligan {
		t.Fatalf("phase after configs = %s", s.Phase())
	}
	for seat := 0; seat < 2; seat++ {
		if err := s.SubmitMulligan(seat, mulligans[seat]); err != nil {
			t.Fatalf("seat %d mulligan: %v", seat, err)
		}
	}
	return s
}

func TestPipelinePhaseGates(t *testing.T) {
	s := NewSession("p0", "Alice", "p1", "Bob", rand.New(rand.NewSource(1)))

	if err := s.SubmitReikiConfig(0, validConfig()); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("early config: got %v, want ErrWrongPhase", err)
	}
	if err := s.SubmitMulligan(0, nil); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("early mulligan: got %v, want ErrWrongPhase", err)
	}
	if _, err := s.BuildDuel(0); !errors.Is(err, ErrNotReady) {
		t.Fatalf("early build: got %v, want ErrNotReady", err)
	}
	if _, err := s.SubmitDeck(5, legalDeck("x")); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("bad seat: got %v, want ErrUnknownPlayer", err)
	}
}

func TestPipelineInvalidDeckKeepsSeatUnready(t *testing.T) {
	s := NewSession("p0", "Alice", "p1", "Bob", rand.New(rand.NewSource(1)))

	res, err := s.SubmitDeck(0, legalDeck("s0")[:10])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Valid {
		t.Fatal("short deck accepted")
	}
	if done := s.Progress(); done[0] {
		t.Fatal("seat 0 marked done after rejected deck")
	}

	// Resubmission with a legal list recovers.
	if res, _ := s.SubmitDeck(0, legalDeck("s0")); !res.Valid {
		t.Fatalf("legal resubmission rejected: %+v", res)
	}
	if done := s.Progress(); !done[0] {
		t.Fatal("seat 0 not marked done after accepted deck")
	}
}

func TestMulligan(t *testing.T) {
	t.Run("KeepAll", func(t *testing.T) {
		s := newReadySession(t, 11, [2][]int{nil, nil})
		for seat := 0; seat < 2; seat++ {
			p := s.PlayerAt(seat)
			if len(p.FinalHand) != domain.OpeningHandSize {
				t.Fatalf("final hand = %d, want %d", len(p.FinalHand), domain.OpeningHandSize)
			}
			for i := range p.FinalHand {
				if p.FinalHand[i].ID != p.InitialHand[i].ID {
					t.Fatalf("keep-all changed the hand")
				}
			}
		}
	})

	t.Run("FullRedraw", func(t *testing.T) {
		s := newReadySession(t, 12, [2][]int{{0, 1, 2, 3, 4}, nil})
		p := s.PlayerAt(0)
		if len(p.FinalHand) != domain.OpeningHandSize {
			t.Fatalf("final hand = %d, want %d", len(p.FinalHand), domain.OpeningHandSize)
		}
		// Deck plus hand is still the whole 50 minus gauge.
		total := len(p.FinalHand) + len(p.RemainingDeck) + domain.BaseCount*domain.GaugePerBase
		if total != domain.DeckSize {
			t.Fatalf("cards conserved = %d, want %d", total, domain.DeckSize)
		}
	})

	t.Run("Rejections", func(t *testing.T) {
		s := NewSession("p0", "Alice", "p1", "Bob", rand.New(rand.NewSource(3)))
		for seat := 0; seat < 2; seat++ {
			s.SubmitDeck(seat, legalDeck(fmt.Sprintf("s%d", seat)))
		}
		for seat := 0; seat < 2; seat++ {
			s.SubmitReikiConfig(seat, validConfig())
		}
		if err := s.SubmitMulligan(0, []int{5}); !errors.Is(err, ErrInvalidMulligan) {
			t.Fatalf("out of range: got %v", err)
		}
		if err := s.SubmitMulligan(0, []int{1, 1}); !errors.Is(err, ErrInvalidMulligan) {
			t.Fatalf("duplicate: got %v", err)
		}
		if err := s.SubmitMulligan(0, nil); err != nil {
			t.Fatalf("valid mulligan: %v", err)
		}
		if err := s.SubmitMulligan(0, nil); !errors.Is(err, ErrWrongPhase) {
			t.Fatalf("second mulligan: got %v", err)
		}
	})
}

func TestBuildDuel(t *testing.T) {
	s := newReadySession(t, 42, [2][]int{{0, 2}, nil})

	if s.Phase() != PhaseReady {
		t.Fatalf("phase = %s, want %s", s.Phase(), PhaseReady)
	}
	if err := s.MarkReady(0); err != nil {
		t.Fatal(err)
	}
	if s.BothReady() {
		t.Fatal("one ready should not be both ready")
	}
	if err := s.MarkReady(1); err != nil {
		t.Fatal(err)
	}
	if !s.BothReady() {
		t.Fatal("both ready expected")
	}

	d, err := s.BuildDuel(1234)
	if err != nil {
		t.Fatal(err)
	}

	if d.Turn != s.FirstPlayer() || d.Turn < 0 || d.Turn > 1 {
		t.Fatalf("first turn seat = %d (rolled %d)", d.Turn, s.FirstPlayer())
	}
	if d.Phase != domain.PhaseDraw || d.TurnCount != 1 || d.Winner != domain.NoWinner {
		t.Fatalf("opening state wrong: %+v", d)
	}
	if d.StartedAt != 1234 {
		t.Fatalf("started at = %d", d.StartedAt)
	}

	for seat := range d.Players {
		p := &d.Players[seat]
		if len(p.Hand) != domain.OpeningHandSize {
			t.Fatalf("seat %d hand = %d", seat, len(p.Hand))
		}
		if len(p.Deck) != domain.DeckSize-domain.OpeningHandSize-domain.BaseCount*domain.GaugePerBase {
			t.Fatalf("seat %d deck = %d", seat, len(p.Deck))
		}
		if len(p.ReikiDeck) != domain.ReikiDeckSize {
			t.Fatalf("seat %d reiki deck = %d", seat, len(p.ReikiDeck))
		}
		if p.Reiki.Total() != domain.ReikiDeckSize {
			t.Fatalf("seat %d opening reiki = %d", seat, p.Reiki.Total())
		}
		if p.UsedReiki.Total() != 0 {
			t.Fatalf("seat %d used reiki = %d", seat, p.UsedReiki.Total())
		}
		for bi := range p.Bases {
			b := &p.Bases[bi]
			if b.Health != domain.BaseMaxHealth || b.MaxHealth != domain.BaseMaxHealth || b.Destroyed {
				t.Fatalf("seat %d base %d wrong: %+v", seat, bi, b)
			}
			if len(b.Gauge) != domain.GaugePerBase {
				t.Fatalf("seat %d base %d gauge = %d", seat, bi, len(b.Gauge))
			}
		}
	}
}

func TestPipelineDeterministicWithSeed(t *testing.T) {
	a := newReadySession(t, 99, [2][]int{{1}, {0, 4}})
	b := newReadySession(t, 99, [2][]int{{1}, {0, 4}})

	da, err := a.BuildDuel(0)
	if err != nil {
		t.Fatal(err)
	}
	db, err := b.BuildDuel(0)
	if err != nil {
		t.Fatal(err)
	}

	if da.Turn != db.Turn {
		t.Fatalf("first player differs: %d vs %d", da.Turn, db.Turn)
	}
	for seat := range da.Players {
		for i := range da.Players[seat].Deck {
			if da.Players[seat].Deck[i].CatalogID != db.Players[seat].Deck[i].CatalogID {
				t.Fatalf("seat %d deck order differs at %d", seat, i)
			}
		}
	}
}
