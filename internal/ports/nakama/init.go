package nakama

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"cnptcg/internal/app"
	"cnptcg/internal/config"
	"cnptcg/internal/session"

	"github.com/heroiclabs/nakama-common/runtime"
)

const rejoinIssuer = "cnptcg"

// InitModule wires RPCs and the duel match handler for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("InitModule: Could not load game config, using defaults: %v", err)
	}
	cfg := config.GetGameConfig()

	secret := ""
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		secret = env["cnptcg_rejoin_secret"]
		if val, ok := env["cnptcg_queue_max_wait_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				cfg.QueueMaxWaitSeconds = i
			}
		}
	}
	if secret == "" {
		logger.Warn("InitModule: cnptcg_rejoin_secret not set, rejoin tokens use a dev secret.")
		secret = "cnptcg-dev-secret"
	}

	matchmaker = session.NewManager(time.Duration(cfg.QueueMaxWaitSeconds) * time.Second)
	rejoinGrants = app.NewRejoinService(secret, rejoinIssuer, time.Duration(cfg.RejoinTokenTTLSeconds)*time.Second)

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameDuel, NewMatch); err != nil {
		return err
	}

	logger.Info("CNP TCG duel module loaded.")
	return nil
}
