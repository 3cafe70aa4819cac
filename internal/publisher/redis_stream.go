package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamGameProcessed receives one entry per processed game
	StreamGameProcessed = "courtside.games.processed"

	// EventGameProcessed is the type field of GameProcessed messages
	EventGameProcessed = "game.processed"

	defaultMaxLen = 10000
)

// TeamPoints is one team's line in a GameProcessed message
type TeamPoints struct {
	TeamID      int `json:"team_id"`
	Possessions int `json:"possessions"`
	Points      int `json:"points"`
}

// GameProcessed announces that a game's possessions and lineups were rebuilt
type GameProcessed struct {
	Type             string       `json:"type"`
	GameID           string       `json:"game_id"`
	TotalPossessions int          `json:"total_possessions"`
	Teams            []TeamPoints `json:"teams"`
	LineupViolations int          `json:"lineup_violations"`
	ProcessedAt      time.Time    `json:"processed_at"`
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		maxLen: defaultMaxLen,
	}
}

// PublishGameProcessed appends msg to StreamGameProcessed and returns the entry id
func (p *RedisStreamPublisher) PublishGameProcessed(ctx context.Context, msg GameProcessed) (string, error) {
	if msg.Type == "" {
		msg.Type = EventGameProcessed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", msg.Type, err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamGameProcessed,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"game_id":   msg.GameID,
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publishing %s for %s: %w", msg.Type, msg.GameID, err)
	}
	return id, nil
}
