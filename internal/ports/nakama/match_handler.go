package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"cnptcg/internal/app"
	"cnptcg/internal/config"
	"cnptcg/internal/domain"
	"cnptcg/internal/session"
	"cnptcg/internal/setup"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for one duel room. One
// Nakama match hosts exactly one room; the match goroutine serializes all
// access, so the room needs no locking of its own.
type MatchState struct {
	Room      *session.Room               `json:"-"`
	App       *app.Service                `json:"-"`
	Presences map[string]runtime.Presence `json:"-"` // UserId -> Presence for targeted messaging

	Tick           int64 `json:"tick"`
	GraceTicks     int64 `json:"grace_ticks"`     // reconnect window, in ticks (1 tick = 1s)
	RetentionTicks int64 `json:"retention_ticks"` // how long an ended room stays readable

	SetupAnnounced bool `json:"setup_announced"`
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created. The matchmaking RPC passes
// both participants in via params.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	p0ID := paramString(params, "player0_id")
	p0Name := paramString(params, "player0_name")
	p1ID := paramString(params, "player1_id")
	p1Name := paramString(params, "player1_name")
	if p0ID == "" || p1ID == "" {
		logger.Error("MatchInit: Missing participant params.")
		return nil, 0, ""
	}

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	cfg := config.GetGameConfig()
	state := &MatchState{
		Room:           session.NewRoom(matchID, p0ID, p0Name, p1ID, p1Name, time.Now()),
		App:            app.NewService(nil),
		Presences:      make(map[string]runtime.Presence),
		GraceTicks:     int64(cfg.ReconnectGraceSeconds),
		RetentionTicks: int64(cfg.RoomRetentionSeconds),
	}

	// Environment overrides for operational tuning without a config redeploy.
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["cnptcg_reconnect_grace_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				state.GraceTicks = int64(i)
			}
		}
		if val, ok := env["cnptcg_room_retention_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				state.RetentionTicks = int64(i)
			}
		}
	}

	// A matched player who never joins must not hold the room open. Unjoined
	// seats start under the same grace window, counted from the first tick;
	// joining clears it like any reconnect.
	for i := range state.Room.Seats {
		state.Room.Seats[i].GraceDeadline = state.GraceTicks
	}

	state.App.BeginSetup(state.Room)

	labelBytes, err := json.Marshal(matchLabel{Game: "cnptcg", State: "setup"})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1 // deadlines below are counted in seconds
	return state, tickRate, string(labelBytes)
}

// MatchJoinAttempt admits only the two room participants. A rejoin token, if
// offered, must match this room and this user.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	seat := matchState.Room.SeatByPlayer(presence.GetUserId())
	if seat < 0 {
		return matchState, false, "not a participant"
	}
	if !matchState.Room.Active {
		return matchState, false, "room closed"
	}

	if token := metadata["rejoin_token"]; token != "" && rejoinGrants != nil {
		roomID, userID, err := rejoinGrants.VerifyToken(token)
		if err != nil || roomID != matchState.Room.ID || userID != presence.GetUserId() {
			logger.Warn("MatchJoinAttempt: Bad rejoin token from %s: %v", presence.GetUserId(), err)
			return matchState, false, "invalid rejoin token"
		}
	}

	return matchState, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}
	room := matchState.Room

	for _, p := range presences {
		seat := room.SeatByPlayer(p.GetUserId())
		if seat < 0 {
			logger.Warn("MatchJoin: Unseated user %s slipped past join attempt.", p.GetUserId())
			continue
		}

		rejoining := room.Seats[seat].SessionID != "" && !room.Seats[seat].Connected
		room.Connect(seat, p.GetSessionId())
		matchState.Presences[p.GetUserId()] = p

		if rejoining {
			logger.Info("MatchJoin: Seat %d (%s) reconnected.", seat, p.GetUserId())
			mh.sendSnapshot(matchState, dispatcher, logger, seat)
			mh.broadcastJSON(matchState, dispatcher, logger, OpOpponentReconnected, presenceEvent{Seat: seat}, nil)
		}
	}

	if !matchState.SetupAnnounced && room.Seats[0].Connected && room.Seats[1].Connected {
		matchState.SetupAnnounced = true
		ev := setupStartedEvent{RoomID: room.ID, Phase: setup.PhaseDeckInput}
		for i := range room.Seats {
			ev.Players[i] = seatInfo{Seat: i, PlayerID: room.Seats[i].PlayerID, Name: room.Seats[i].Name}
		}
		mh.broadcastJSON(matchState, dispatcher, logger, OpSetupStarted, ev, nil)
	}

	return matchState
}

// MatchLeave marks seats disconnected and arms their reconnect grace. The
// seat is only forfeited when the grace runs out in MatchLoop.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		seat := matchState.Room.MarkDisconnected(p.GetSessionId(), tick+matchState.GraceTicks)
		if seat < 0 {
			// A stale leave from a session that already rebound.
			continue
		}
		logger.Info("MatchLeave: Seat %d (%s) disconnected, grace until tick %d.", seat, p.GetUserId(), tick+matchState.GraceTicks)
		mh.broadcastJSON(matchState, dispatcher, logger, OpOpponentDisconnected, presenceEvent{Seat: seat, GraceSeconds: matchState.GraceTicks}, nil)
	}

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick
	room := matchState.Room

	for _, msg := range messages {
		seat := room.SeatByPlayer(msg.GetUserId())
		if seat < 0 {
			logger.Warn("MatchLoop: Message from unseated user %s.", msg.GetUserId())
			continue
		}

		switch msg.GetOpCode() {
		case OpSubmitDeck:
			mh.handleSubmitDeck(matchState, dispatcher, logger, seat, msg)
		case OpSubmitReiki:
			mh.handleSubmitReiki(matchState, dispatcher, logger, seat, msg)
		case OpSubmitMulligan:
			mh.handleSubmitMulligan(matchState, dispatcher, logger, seat, msg)
		case OpReady:
			mh.handleReady(matchState, dispatcher, logger, seat, msg)
		case OpGameCommand:
			mh.handleGameCommand(matchState, dispatcher, logger, seat, msg)
		case OpChat:
			mh.handleChat(matchState, dispatcher, logger, seat, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	// A setup both players walked out on is abandoned at once; the grace
	// window protects a live duel, not an empty lobby.
	if room.Active && room.Duel == nil && room.AllDisconnected() &&
		room.Seats[0].SessionID != "" && room.Seats[1].SessionID != "" {
		logger.Info("MatchLoop: Both seats left during setup, abandoning room %s.", room.ID)
		mh.retireRoom(matchState, dispatcher, logger, tick)
	}

	// Forfeit seats whose reconnect grace ran out. The first forfeit settles
	// the room, so a second seat expiring on the same tick changes nothing.
	if room.Active {
		for _, seat := range room.ExpiredGraceSeats(tick) {
			if !room.Active {
				break
			}
			logger.Info("MatchLoop: Seat %d grace expired at tick %d.", seat, tick)
			events := matchState.App.ForfeitSeat(room, seat)
			if events == nil && room.Duel == nil {
				// Walkover: the duel never started, the remaining player wins.
				opp := domain.Opponent(seat)
				events = []app.Event{{
					Kind: app.EventGameEnded,
					Payload: app.GameEndedPayload{
						WinnerSeat: opp,
						WinnerID:   room.Seats[opp].PlayerID,
						Reason:     app.EndReasonDisconnectTimeout,
					},
				}}
			}
			for _, ev := range events {
				mh.broadcastEvent(matchState, dispatcher, logger, ev)
			}
			mh.retireRoom(matchState, dispatcher, logger, tick)
		}
	}

	// Retire the room once its duel is decided in play.
	if room.Active && room.Duel != nil && room.Duel.Decided() {
		mh.retireRoom(matchState, dispatcher, logger, tick)
	}

	if room.PurgeDue(tick) {
		logger.Info("MatchLoop: Room %s outlived retention, terminating.", room.ID)
		return nil
	}

	return matchState
}

// retireRoom deactivates the room, frees its matchmaking bindings and flips
// the label so listings stop offering it.
func (mh *matchHandler) retireRoom(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, tick int64) {
	state.Room.Deactivate(tick, state.RetentionTicks)
	if matchmaker != nil {
		matchmaker.Release(state.Room.ID)
	}
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) handleSubmitDeck(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, msg runtime.MatchData) {
	var req submitDeckMessage
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleSubmitDeck: Bad payload from seat %d: %v", seat, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), nil, err)
		return
	}

	events, err := state.App.SubmitDeck(state.Room, seat, req.Cards)
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), nil, err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleSubmitReiki(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, msg runtime.MatchData) {
	var req submitReikiMessage
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleSubmitReiki: Bad payload from seat %d: %v", seat, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), nil, err)
		return
	}

	events, err := state.App.SubmitReikiConfig(state.Room, seat, req.Config)
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), nil, err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleSubmitMulligan(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, msg runtime.MatchData) {
	var req submitMulliganMessage
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleSubmitMulligan: Bad payload from seat %d: %v", seat, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), nil, err)
		return
	}

	events, err := state.App.SubmitMulligan(state.Room, seat, req.Indices)
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), nil, err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleReady(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, msg runtime.MatchData) {
	events, err := state.App.MarkReady(state.Room, seat, time.Now().Unix())
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), nil, err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleGameCommand(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, msg runtime.MatchData) {
	var req gameCommandMessage
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleGameCommand: Bad payload from seat %d: %v", seat, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), nil, err)
		return
	}

	events, err := state.App.HandleCommand(state.Room, seat, req.Command)
	if err != nil {
		logger.Debug("handleGameCommand: Seat %d command %s rejected: %v", seat, req.Command.Kind, err)
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), &req.Command, err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleChat(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, msg runtime.MatchData) {
	var req chatMessage
	if err := json.Unmarshal(msg.GetData(), &req); err != nil || req.Text == "" {
		return
	}

	events, err := state.App.Chat(state.Room, seat, req.Text)
	if err != nil {
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// sendSnapshot resyncs one seat after a rejoin.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int) {
	userID := state.Room.Seats[seat].PlayerID
	mh.broadcastJSON(state, dispatcher, logger, OpRoomSnapshot, buildSnapshot(state.Room, seat), []string{userID})
}

// broadcastEvent maps an app event to its opcode and wire payload.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	payload := ev.Payload

	switch ev.Kind {
	case app.EventSetupProgress:
		opCode = OpSetupProgress
	case app.EventDeckAccepted:
		opCode = OpDeckAccepted
	case app.EventDeckRejected:
		opCode = OpDeckRejected
	case app.EventHandsDealt:
		opCode = OpHandsDealt
	case app.EventSetupComplete:
		opCode = OpSetupComplete
	case app.EventGameStarted:
		opCode = OpGameStarted
		p := ev.Payload.(app.GameStartedPayload)
		payload = gameStartedEvent{Duel: newDuelView(p.Duel)}
		mh.updateLabel(state, dispatcher, logger)
	case app.EventStateUpdate:
		opCode = OpStateUpdate
		p := ev.Payload.(app.StateUpdatePayload)
		payload = stateUpdateEvent{Seat: p.Seat, Command: p.Command, Duel: newDuelView(p.Duel)}
	case app.EventGameEnded:
		opCode = OpGameEnded
	case app.EventChat:
		opCode = OpChatMessage
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	mh.broadcastJSON(state, dispatcher, logger, opCode, payload, ev.Recipients)
}

// broadcastJSON dispatches a JSON payload, resolving recipient user ids to
// live presences. An event with intended recipients who are all offline is
// dropped rather than leaked to everyone.
func (mh *matchHandler) broadcastJSON(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, payload interface{}, recipientIDs []string) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal payload for opcode %d: %v", opCode, err)
		return
	}

	var recipients []runtime.Presence
	if len(recipientIDs) > 0 {
		for _, uid := range recipientIDs {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// sendError reports a rejected message to its sender only.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cmd *domain.Command, err error) {
	payload := commandRejectedEvent{
		Kind:    wireKind(err),
		Message: err.Error(),
		Command: cmd,
	}
	mh.broadcastJSON(state, dispatcher, logger, OpCommandRejected, payload, []string{userID})
}

// wireKind maps rejection errors to stable wire identifiers. Domain rule
// rejections carry their own taxonomy; everything above the rules engine is
// mapped here.
func wireKind(err error) string {
	switch {
	case errors.Is(err, app.ErrNoSetup):
		return "NoSetup"
	case errors.Is(err, app.ErrNoDuel):
		return "NoDuel"
	case errors.Is(err, app.ErrUnknownSeat):
		return "UnknownSeat"
	case errors.Is(err, setup.ErrWrongPhase):
		return "WrongPhase"
	case errors.Is(err, setup.ErrUnknownPlayer):
		return "UnknownPlayer"
	case errors.Is(err, setup.ErrInvalidMulligan):
		return "InvalidMulligan"
	case errors.Is(err, setup.ErrNotReady):
		return "NotReady"
	}
	return domain.KindOf(err)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelState := "setup"
	if state.Room.Duel != nil {
		labelState = "playing"
	}
	if !state.Room.Active {
		labelState = "ended"
	}

	labelBytes, err := json.Marshal(matchLabel{Game: "cnptcg", State: labelState})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	if matchState, ok := state.(*MatchState); ok && matchmaker != nil {
		matchmaker.Release(matchState.Room.ID)
	}
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

func paramString(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}
