package app

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"cnptcg/internal/domain"
	"cnptcg/internal/session"
	"cnptcg/internal/setup"
)

func testRoom(t *testing.T, seed int64) (*Service, *session.Room) {
	t.Helper()
	svc := NewService(rand.New(rand.NewSource(seed)))
	room := session.NewRoom("room-1", "user-0", "Alice", "user-1", "Bob", time.Now())
	svc.BeginSetup(room)
	return svc, room
}

func legalDeck(prefix string) []setup.DeckCard {
	var cards []setup.DeckCard
	for i := 0; i < 12; i++ {
		for c := 0; c < 4; c++ {
			cards = append(cards, setup.DeckCard{
				ID:    fmt.Sprintf("%s-unit-%d", prefix, i),
				Name:  fmt.Sprintf("Unit %d", i),
				Type:  string(domain.CardTypeUnit),
				Cost:  1,
				BP:    1000,
				Color: "red",
			})
		}
	}
	cards = append(cards,
		setup.DeckCard{ID: prefix + "-e", Name: "Event", Type: string(domain.CardTypeEvent), Cost: 1, Color: "blue"},
		setup.DeckCard{ID: prefix + "-s", Name: "Supporter", Type: string(domain.CardTypeSupporter), Cost: 2, Color: "green"},
	)
	return cards
}

func validConfig() setup.ReikiConfig {
	return setup.ReikiConfig{Blue: 4, Red: 4, Yellow: 4, Green: 3, Total: 15}
}

// runSetup drives both players through the whole pipeline and returns the
// events of the final MarkReady.
func runSetup(t *testing.T, svc *Service, room *session.Room) []Event {
	t.Helper()
	for seat := 0; seat < 2; seat++ {
		if _, err := svc.SubmitDeck(room, seat, legalDeck(fmt.Sprintf("s%d", seat))); err != nil {
			t.Fatalf("seat %d deck: %v", seat, err)
		}
	}
	for seat := 0; seat < 2; seat++ {
		if _, err := svc.SubmitReikiConfig(room, seat, validConfig()); err != nil {
			t.Fatalf("seat %d config: %v", seat, err)
		}
	}
	for seat := 0; seat < 2; seat++ {
		if _, err := svc.SubmitMulligan(room, seat, nil); err != nil {
			t.Fatalf("seat %d mulligan: %v", seat, err)
		}
	}
	if _, err := svc.MarkReady(room, 0, 0); err != nil {
		t.Fatalf("seat 0 ready: %v", err)
	}
	events, err := svc.MarkReady(room, 1, 1234)
	if err != nil {
		t.Fatalf("seat 1 ready: %v", err)
	}
	return events
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func hasKind(events []Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestSetupFlowEvents(t *testing.T) {
	svc, room := testRoom(t, 7)

	events, err := svc.SubmitDeck(room, 0, legalDeck("s0"))
	if err != nil {
		t.Fatal(err)
	}
	if !hasKind(events, EventDeckAccepted) || !hasKind(events, EventSetupProgress) {
		t.Fatalf("deck events = %v", kinds(events))
	}
	for _, ev := range events {
		if ev.Kind == EventDeckAccepted {
			if len(ev.Recipients) != 1 || ev.Recipients[0] != "user-0" {
				t.Fatalf("deck acceptance should target the submitter, got %v", ev.Recipients)
			}
		}
		if ev.Kind == EventSetupProgress {
			if len(ev.Recipients) != 0 {
				t.Fatal("progress should broadcast")
			}
			p := ev.Payload.(SetupProgressPayload)
			if !p.Done[0] || p.Done[1] {
				t.Fatalf("progress payload = %+v", p)
			}
		}
	}

	if _, err := svc.SubmitDeck(room, 1, legalDeck("s1")); err != nil {
		t.Fatal(err)
	}

	events, err = svc.SubmitReikiConfig(room, 0, validConfig())
	if err != nil {
		t.Fatal(err)
	}
	if hasKind(events, EventHandsDealt) {
		t.Fatal("hands dealt before both configs")
	}
	events, err = svc.SubmitReikiConfig(room, 1, validConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !hasKind(events, EventHandsDealt) {
		t.Fatalf("second config events = %v", kinds(events))
	}

	if _, err := svc.SubmitMulligan(room, 0, []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	events, err = svc.SubmitMulligan(room, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !hasKind(events, EventSetupComplete) {
		t.Fatalf("second mulligan events = %v", kinds(events))
	}

	if _, err := svc.MarkReady(room, 0, 0); err != nil {
		t.Fatal(err)
	}
	events, err = svc.MarkReady(room, 1, 99)
	if err != nil {
		t.Fatal(err)
	}
	if !hasKind(events, EventGameStarted) {
		t.Fatalf("final ready events = %v", kinds(events))
	}
	if room.Duel == nil || room.Setup != nil {
		t.Fatal("room should hold a duel and no setup after start")
	}
	if room.Duel.StartedAt != 99 {
		t.Fatalf("started at = %d", room.Duel.StartedAt)
	}
}

func TestSubmitDeckRejectionTargetsSubmitter(t *testing.T) {
	svc, room := testRoom(t, 7)

	events, err := svc.SubmitDeck(room, 1, legalDeck("s1")[:20])
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Kind != EventDeckRejected {
		t.Fatalf("events = %v", kinds(events))
	}
	if len(events[0].Recipients) != 1 || events[0].Recipients[0] != "user-1" {
		t.Fatalf("recipients = %v", events[0].Recipients)
	}
	p := events[0].Payload.(DeckRejectedPayload)
	if len(p.Errors) == 0 {
		t.Fatal("rejection should carry the violation list")
	}
}

func TestHandleCommand(t *testing.T) {
	svc, room := testRoom(t, 21)
	runSetup(t, svc, room)

	seat := room.Duel.Turn
	before := room.Duel

	events, err := svc.HandleCommand(room, seat, domain.Command{Kind: domain.CmdDrawReiki})
	if err != nil {
		t.Fatal(err)
	}
	if room.Duel == before {
		t.Fatal("accepted command should commit a new state")
	}
	if len(events) != 1 || events[0].Kind != EventStateUpdate {
		t.Fatalf("events = %v", kinds(events))
	}
	p := events[0].Payload.(StateUpdatePayload)
	if p.Seat != seat || p.Duel != room.Duel {
		t.Fatalf("snapshot payload mismatch: %+v", p)
	}

	// A rejection leaves the committed state alone.
	committed := room.Duel
	if _, err := svc.HandleCommand(room, domain.Opponent(seat), domain.Command{Kind: domain.CmdDraw}); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("got %v, want ErrNotYourTurn", err)
	}
	if room.Duel != committed {
		t.Fatal("rejected command mutated the room")
	}
}

func TestHandleCommandBeforeStart(t *testing.T) {
	svc, room := testRoom(t, 3)
	if _, err := svc.HandleCommand(room, 0, domain.Command{Kind: domain.CmdDraw}); !errors.Is(err, ErrNoDuel) {
		t.Fatalf("got %v, want ErrNoDuel", err)
	}
}

func TestSurrenderEndsGame(t *testing.T) {
	svc, room := testRoom(t, 5)
	runSetup(t, svc, room)

	seat := room.Duel.Turn
	events, err := svc.HandleCommand(room, seat, domain.Command{Kind: domain.CmdSurrender})
	if err != nil {
		t.Fatal(err)
	}
	if !hasKind(events, EventGameEnded) {
		t.Fatalf("events = %v", kinds(events))
	}
	for _, ev := range events {
		if ev.Kind == EventGameEnded {
			p := ev.Payload.(GameEndedPayload)
			if p.WinnerSeat != domain.Opponent(seat) || p.Reason != EndReasonSurrender {
				t.Fatalf("payload = %+v", p)
			}
		}
	}
}

func TestForfeitSeat(t *testing.T) {
	svc, room := testRoom(t, 9)
	runSetup(t, svc, room)

	events := svc.ForfeitSeat(room, 1)
	if len(events) != 1 || events[0].Kind != EventGameEnded {
		t.Fatalf("events = %v", kinds(events))
	}
	p := events[0].Payload.(GameEndedPayload)
	if p.WinnerSeat != 0 || p.Reason != EndReasonDisconnectTimeout {
		t.Fatalf("payload = %+v", p)
	}
	if !room.Duel.Decided() {
		t.Fatal("duel should be decided")
	}

	// Forfeit after the fact is silent.
	if events := svc.ForfeitSeat(room, 0); events != nil {
		t.Fatalf("second forfeit emitted %v", kinds(events))
	}
}

func TestChat(t *testing.T) {
	svc, room := testRoom(t, 13)

	events, err := svc.Chat(room, 1, "gg")
	if err != nil {
		t.Fatal(err)
	}
	p := events[0].Payload.(ChatPayload)
	if p.Name != "Bob" || p.Text != "gg" {
		t.Fatalf("payload = %+v", p)
	}
	if _, err := svc.Chat(room, 4, "hi"); !errors.Is(err, ErrUnknownSeat) {
		t.Fatalf("got %v, want ErrUnknownSeat", err)
	}
}
