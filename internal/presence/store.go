package presence

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Store tracks which viewers have a contact's conversation open. State is
// TTL-bounded and rebuilt by viewers re-announcing after a restart; losing
// it only means unread counters behave as if nobody were watching.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

const viewingKeyPrefix = "viewing:"

func NewStore(client *goredis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

// MarkViewing records that a viewer has the contact's conversation open.
func (s *Store) MarkViewing(ctx context.Context, contactID uuid.UUID, viewerID string) error {
	key := viewingKeyPrefix + contactID.String()
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, key, viewerID)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// MarkIdle removes a viewer from the contact's viewing set.
func (s *Store) MarkIdle(ctx context.Context, contactID uuid.UUID, viewerID string) error {
	key := viewingKeyPrefix + contactID.String()
	return s.client.SRem(ctx, key, viewerID).Err()
}

// Heartbeat refreshes the TTL while a viewer keeps the conversation open.
func (s *Store) Heartbeat(ctx context.Context, contactID uuid.UUID) error {
	key := viewingKeyPrefix + contactID.String()
	return s.client.Expire(ctx, key, s.ttl).Err()
}

// IsBeingViewed reports whether at least one viewer has the conversation
// open right now.
func (s *Store) IsBeingViewed(ctx context.Context, contactID uuid.UUID) (bool, error) {
	key := viewingKeyPrefix + contactID.String()
	count, err := s.client.SCard(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
