package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultSlotTTL bounds how long an abandoned slot survives in Redis.
// The database stays authoritative after expiry.
const DefaultSlotTTL = 12 * time.Hour

const slotKeyPrefix = "tracking:current:"

// releaseScript deletes the slot only when it still holds the expected session id
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionSlots stores each user's current tracking session id in Redis
type SessionSlots struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionSlots creates a slot store. A non-positive ttl uses DefaultSlotTTL.
func NewSessionSlots(c *Client, ttl time.Duration) *SessionSlots {
	if ttl <= 0 {
		ttl = DefaultSlotTTL
	}
	return &SessionSlots{client: c.client, ttl: ttl}
}

func slotKey(userID uuid.UUID) string {
	return slotKeyPrefix + userID.String()
}

// Get returns the user's current session id. ok is false when the slot is empty.
func (s *SessionSlots) Get(ctx context.Context, userID uuid.UUID) (sessionID uuid.UUID, ok bool, err error) {
	val, err := s.client.Get(ctx, slotKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to read session slot: %w", err)
	}

	sessionID, err = uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt session slot for user %s: %w", userID, err)
	}
	return sessionID, true, nil
}

// Set points the user's slot at sessionID
func (s *SessionSlots) Set(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.client.Set(ctx, slotKey(userID), sessionID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session slot: %w", err)
	}
	return nil
}

// Release clears the user's slot if it still points at sessionID
func (s *SessionSlots) Release(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := releaseScript.Run(ctx, s.client, []string{slotKey(userID)}, sessionID.String()).Err(); err != nil {
		return fmt.Errorf("failed to release session slot: %w", err)
	}
	return nil
}
