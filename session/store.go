package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultTTL is the lifetime of a refresh session when none is configured.
const DefaultTTL = 30 * 24 * time.Hour

const deleteSessionScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed refresh session store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a [Store]. prefix namespaces every key; ttl is the lifetime of new
// sessions and falls back to DefaultTTL when zero.
func NewStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "bs"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redis:  rdb,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL reports the lifetime given to new sessions.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + "u:" + userID
}

// CreateSession stores a new session for userID and returns it together with the
// refresh token. The token is only ever returned here.
//
//	Performance: 1 MULTI/EXEC (SET + SADD + EXPIRE).
func (s *Store) CreateSession(ctx context.Context, userID string) (*Record, string, error) {
	if userID == "" {
		return nil, "", errors.New("user id is required")
	}

	token, err := newRefreshToken()
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	rec := &Record{
		ID:          token.SessionID(),
		UserID:      userID,
		RefreshHash: token.secretHash(),
		CreatedAt:   now,
		Expiration:  now.Add(s.ttl),
	}

	data, err := Encode(rec)
	if err != nil {
		return nil, "", err
	}

	userKey := s.userKey(userID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.ID), data, s.ttl)
		pipe.SAdd(ctx, userKey, rec.ID)
		pipe.Expire(ctx, userKey, s.ttl)
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return rec, token.String(), nil
}

// FindSession resolves a refresh token. It returns nil, nil when the token is malformed
// or unknown, when its secret does not match, or when Lookup.UserID is set and the
// session belongs to someone else. Expiration is left to the caller.
//
//	Performance: 1 Redis GET.
func (s *Store) FindSession(ctx context.Context, lookup Lookup) (*Record, error) {
	if lookup.RefreshToken == "" {
		return nil, nil
	}
	token, err := parseRefreshToken(lookup.RefreshToken)
	if err != nil {
		return nil, nil
	}

	rec, err := s.get(ctx, token.SessionID())
	if err != nil || rec == nil {
		return nil, err
	}

	if lookup.UserID != "" && lookup.UserID != rec.UserID {
		return nil, nil
	}
	hash := token.secretHash()
	if subtle.ConstantTimeCompare(hash[:], rec.RefreshHash[:]) != 1 {
		return nil, nil
	}

	return rec, nil
}

// DeleteSession removes a session and its index entry. It reports whether a record
// existed; deleting an absent session is not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	rec, err := s.get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	existed, err := deleteSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(sessionID), s.userKey(rec.UserID)},
		sessionID,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return existed == 1, nil
}

// ListUserSessions returns the live sessions of userID, oldest first. Index entries
// whose record already expired are skipped.
//
//	Performance: 1 SMEMBERS + 1 pipelined GET batch.
func (s *Store) ListUserSessions(ctx context.Context, userID string) ([]*Record, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Record{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Record{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	records := make([]*Record, 0, len(ids))
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}
		rec, decErr := Decode(data)
		if decErr != nil {
			return nil, decErr
		}
		rec.ID = ids[i]
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records, nil
}

// Ping checks Redis availability and reports the round-trip latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *Store) get(ctx context.Context, sessionID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}
	rec.ID = sessionID
	return rec, nil
}
