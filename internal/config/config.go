package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GameConfig holds server-side duel tuning. All durations are in seconds;
// the match tick rate is one tick per second, so they double as tick counts.
type GameConfig struct {
	// QueueMaxWaitSeconds is how long a matchmaking entry may sit before
	// the sweep purges it.
	QueueMaxWaitSeconds int `json:"queue_max_wait_seconds"`
	// ReconnectGraceSeconds is how long a disconnected player keeps their
	// seat before forfeiting.
	ReconnectGraceSeconds int `json:"reconnect_grace_seconds"`
	// RoomRetentionSeconds is how long a finished room stays readable.
	RoomRetentionSeconds int `json:"room_retention_seconds"`
	// RejoinTokenTTLSeconds bounds the validity of rejoin grants.
	RejoinTokenTTLSeconds int `json:"rejoin_token_ttl_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration with safe defaults filled
// in for anything missing or unloaded.
func GetGameConfig() GameConfig {
	out := GameConfig{
		QueueMaxWaitSeconds:   60,
		ReconnectGraceSeconds: 30,
		RoomRetentionSeconds:  300,
		RejoinTokenTTLSeconds: 900,
	}
	if cfg == nil {
		return out
	}
	if cfg.QueueMaxWaitSeconds > 0 {
		out.QueueMaxWaitSeconds = cfg.QueueMaxWaitSeconds
	}
	if cfg.ReconnectGraceSeconds > 0 {
		out.ReconnectGraceSeconds = cfg.ReconnectGraceSeconds
	}
	if cfg.RoomRetentionSeconds > 0 {
		out.RoomRetentionSeconds = cfg.RoomRetentionSeconds
	}
	if cfg.RejoinTokenTTLSeconds > 0 {
		out.RejoinTokenTTLSeconds = cfg.RejoinTokenTTLSeconds
	}
	return out
}
