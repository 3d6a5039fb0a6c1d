package guidanceinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

const (
	// chatHistoryCap is the hard cap on stored turns per plan. Older turns
	// are trimmed away as new ones arrive.
	chatHistoryCap = 40

	// chatHistoryTTL expires idle conversations
	chatHistoryTTL = 24 * time.Hour
)

// RedisChatStore keeps the follow-up chat history per plan in a Redis list
type RedisChatStore struct {
	client *redis.Client
}

// NewRedisChatStore creates a new Redis-backed chat history store
func NewRedisChatStore(client *redis.Client) guidance.ChatHistoryStore {
	return &RedisChatStore{client: client}
}

func chatKey(planID kernel.PlanID) string {
	return "chat:plan:" + planID.String()
}

// Append stores one chat turn and refreshes the conversation TTL
func (s *RedisChatStore) Append(ctx context.Context, planID kernel.PlanID, role, content string) error {
	turn := guidance.ChatTurn{Role: role, Content: content}
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal chat turn: %w", err)
	}

	key := chatKey(planID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -chatHistoryCap, -1)
	pipe.Expire(ctx, key, chatHistoryTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat turn for plan %s: %w", planID, err)
	}
	return nil
}

// History returns the most recent turns, oldest first
func (s *RedisChatStore) History(ctx context.Context, planID kernel.PlanID, limit int) ([]guidance.ChatTurn, error) {
	if limit <= 0 || limit > chatHistoryCap {
		limit = chatHistoryCap
	}

	raw, err := s.client.LRange(ctx, chatKey(planID), int64(-limit), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load chat history for plan %s: %w", planID, err)
	}

	turns := make([]guidance.ChatTurn, 0, len(raw))
	for _, entry := range raw {
		var turn guidance.ChatTurn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			// Skip corrupt entries rather than losing the conversation
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear drops the conversation for a plan
func (s *RedisChatStore) Clear(ctx context.Context, planID kernel.PlanID) error {
	if err := s.client.Del(ctx, chatKey(planID)).Err(); err != nil {
		return fmt.Errorf("clear chat history for plan %s: %w", planID, err)
	}
	return nil
}
