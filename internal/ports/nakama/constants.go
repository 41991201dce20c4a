package nakama

const (
	// RpcFindMatch pairs the caller with the longest-waiting player or
	// enqueues them.
	RpcFindMatch = "find_match"

	// RpcCancelMatchmaking removes the caller's queue entry.
	RpcCancelMatchmaking = "cancel_matchmaking"

	// RpcValidateDeck checks a deck list without joining a room, so deck
	// builders can validate before matchmaking.
	RpcValidateDeck = "validate_deck"

	// MatchNameDuel is the authoritative match handler name registered
	// with Nakama. One match hosts one room.
	MatchNameDuel = "cnptcg_duel"
)

// NotificationCodeMatchFound tells the waiting client their room is ready.
const NotificationCodeMatchFound = 110

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpSubmitDeck     int64 = 1
	OpSubmitReiki    int64 = 2
	OpSubmitMulligan int64 = 3
	OpReady          int64 = 4
	OpGameCommand    int64 = 5
	OpChat           int64 = 6

	// Server -> Client events
	OpSetupStarted         int64 = 101
	OpSetupProgress        int64 = 102
	OpDeckAccepted         int64 = 103
	OpDeckRejected         int64 = 104
	OpHandsDealt           int64 = 105
	OpSetupComplete        int64 = 106
	OpGameStarted          int64 = 107
	OpStateUpdate          int64 = 108
	OpCommandRejected      int64 = 109
	OpOpponentDisconnected int64 = 110
	OpOpponentReconnected  int64 = 111
	OpGameEnded            int64 = 112
	OpChatMessage          int64 = 113
	OpRoomSnapshot         int64 = 114 // private resync after a rejoin
)
