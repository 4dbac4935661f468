package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore keeps sessions in redis under a TTL, so abandoned visits
// expire on their own.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("funnel.internal.session")
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: tracer,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("funnel:session:%s", id)
}

func bonusKey(id string) string {
	return fmt.Sprintf("funnel:bonus:%s", id)
}

func popupKey(id string) string {
	return fmt.Sprintf("funnel:popup:%s", id)
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) SaveBonus(ctx context.Context, sessionID string, b BonusData) error {
	ctx, span := s.tracer.Start(ctx, "session.save_bonus")
	defer span.End()

	data, err := json.Marshal(b)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal bonus data: %w", err)
	}
	if err := s.redis.Set(ctx, bonusKey(sessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist bonus data: %w", err)
	}
	return nil
}

func (s *RedisStore) TakeBonus(ctx context.Context, sessionID string) (*BonusData, error) {
	ctx, span := s.tracer.Start(ctx, "session.take_bonus")
	defer span.End()

	data, err := s.redis.GetDel(ctx, bonusKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to read bonus data: %w", err)
	}

	var b BonusData
	if err := json.Unmarshal(data, &b); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode bonus data: %w", err)
	}
	return &b, nil
}

func (s *RedisStore) MarkExitPopupShown(ctx context.Context, sessionID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "session.mark_exit_popup")
	defer span.End()

	first, err := s.redis.SetNX(ctx, popupKey(sessionID), "1", s.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("session: failed to mark exit popup: %w", err)
	}
	return first, nil
}

var _ Store = (*RedisStore)(nil)
