package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"cnptcg/internal/app"
	"cnptcg/internal/session"
	"cnptcg/internal/setup"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Process-scoped matchmaking state, wired in InitModule. RPC goroutines and
// match goroutines share these through the Manager's own lock.
var (
	matchmaker   *session.Manager
	rejoinGrants *app.RejoinService
)

var errNoUserID = errors.New("rpc requires an authenticated user")

// FindMatchResponse is returned to both a freshly queued caller and a
// matched one. RejoinToken lets a matched player re-enter their room after a
// disconnect without going through matchmaking again.
type FindMatchResponse struct {
	Status      string `json:"status"` // queued, matched, already_matched
	MatchID     string `json:"match_id,omitempty"`
	RejoinToken string `json:"rejoin_token,omitempty"`
}

// CancelMatchmakingResponse reports whether a queue entry was removed.
type CancelMatchmakingResponse struct {
	Cancelled bool `json:"cancelled"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcFindMatch, rpcFindMatch); err != nil {
		return err
	}
	if err := initializer.RegisterRpc(RpcCancelMatchmaking, rpcCancelMatchmaking); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcValidateDeck, rpcValidateDeck)
}

// rpcFindMatch pairs the caller with the longest-waiting participant. The
// second player of a pair creates the match, binds both users to it, and
// notifies the waiting player with the room to join.
func rpcFindMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", errNoUserID
	}
	username, _ := ctx.Value(runtime.RUNTIME_CTX_USERNAME).(string)

	result, err := matchmaker.FindMatch(userID, username, time.Now())
	if err != nil {
		if errors.Is(err, session.ErrAlreadyMatched) {
			resp := FindMatchResponse{Status: "already_matched"}
			if roomID, ok := matchmaker.RoomOf(userID); ok {
				resp.MatchID = roomID
				resp.RejoinToken, _ = rejoinGrants.GenerateToken(roomID, userID)
			}
			return marshalResponse(resp)
		}
		logger.Error("rpcFindMatch [User:%s]: %v", userID, err)
		return "", err
	}

	if !result.Matched {
		logger.Debug("rpcFindMatch [User:%s]: Queued.", userID)
		return marshalResponse(FindMatchResponse{Status: "queued"})
	}

	opponent := result.Opponent
	matchID, err := nk.MatchCreate(ctx, MatchNameDuel, map[string]interface{}{
		"player0_id":   opponent.UserID,
		"player0_name": opponent.Username,
		"player1_id":   userID,
		"player1_name": username,
	})
	if err != nil {
		// The opponent was already popped; put them back at the head of the
		// queue so the failed pairing costs them nothing.
		matchmaker.Requeue(opponent)
		logger.Error("rpcFindMatch [User:%s]: Failed to create match: %v", userID, err)
		return "", err
	}
	matchmaker.Bind(matchID, opponent.UserID, userID)

	opponentToken, err := rejoinGrants.GenerateToken(matchID, opponent.UserID)
	if err != nil {
		logger.Warn("rpcFindMatch: Could not issue rejoin token for %s: %v", opponent.UserID, err)
	}
	callerToken, err := rejoinGrants.GenerateToken(matchID, userID)
	if err != nil {
		logger.Warn("rpcFindMatch: Could not issue rejoin token for %s: %v", userID, err)
	}

	// Tell the player who has been waiting where to go.
	content := map[string]interface{}{
		"match_id":     matchID,
		"rejoin_token": opponentToken,
		"opponent":     username,
	}
	if err := nk.NotificationSend(ctx, opponent.UserID, "match_found", content, NotificationCodeMatchFound, "", false); err != nil {
		logger.Error("rpcFindMatch: Failed to notify %s: %v", opponent.UserID, err)
	}

	logger.Info("rpcFindMatch: Paired %s and %s in match %s.", opponent.UserID, userID, matchID)
	return marshalResponse(FindMatchResponse{Status: "matched", MatchID: matchID, RejoinToken: callerToken})
}

func rpcCancelMatchmaking(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", errNoUserID
	}

	cancelled := matchmaker.Cancel(userID, time.Now())
	logger.Debug("rpcCancelMatchmaking [User:%s]: cancelled=%t", userID, cancelled)
	return marshalResponse(CancelMatchmakingResponse{Cancelled: cancelled})
}

// rpcValidateDeck checks a deck list without any room context, so clients
// can validate while deck-building.
func rpcValidateDeck(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req submitDeckMessage
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", err
	}

	return marshalResponse(setup.ValidateDeck(req.Cards))
}

func marshalResponse(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
