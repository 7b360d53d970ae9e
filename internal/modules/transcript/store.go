// README: Bounded per-user conversation transcript backed by Redis lists.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MaxTurns bounds the stored history per user; older turns fall off.
	MaxTurns = 100

	keyPrefix = "transcript:"
	// Transcripts of abandoned conversations expire on their own.
	keyTTL = 30 * 24 * time.Hour
)

// Turn is one transcript entry. Immutable once appended.
type Turn struct {
	Timestamp time.Time `json:"ts"`
	Sender    string    `json:"sender"` // "user" or "bot"
	Message   string    `json:"message"`
	Stage     string    `json:"stage"`
}

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Append pushes turns onto the user's transcript and trims it to the last
// MaxTurns entries. Newest entries sit at the head of the list.
func (s *Store) Append(ctx context.Context, userID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key := keyPrefix + userID
	pipe := s.redis.Pipeline()
	for _, t := range turns {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		pipe.LPush(ctx, key, payload)
	}
	pipe.LTrim(ctx, key, 0, MaxTurns-1)
	pipe.Expire(ctx, key, keyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns up to n turns, newest first.
func (s *Store) Recent(ctx context.Context, userID string, n int) ([]Turn, error) {
	if n <= 0 || n > MaxTurns {
		n = MaxTurns
	}
	raw, err := s.redis.LRange(ctx, keyPrefix+userID, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}
