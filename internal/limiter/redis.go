package limiter

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateRecordVersion1 = 1

// ErrBackendUnavailable indicates the attempt store backend is unreachable
// or returned a malformed record.
var ErrBackendUnavailable = errors.New("rate limit backend unavailable")

// RedisStore persists attempt state in Redis so lockouts survive process
// restarts and are shared across replicas.
//
// Update uses an optimistic WATCH transaction: the read-mutate-write cycle
// retries when another client touches the key in between, which gives the
// same per-key atomicity the in-memory store gets from its mutex.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisStore creates a RedisStore. An empty prefix defaults to "agrl".
// retention caps how long an untouched record stays alive; it should be at
// least the larger of the counting window and the lockout duration. Zero
// defaults to 24 hours.
func NewRedisStore(redisClient redis.UniversalClient, prefix string, retention time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "agrl"
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisStore{redis: redisClient, prefix: prefix, retention: retention}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Update implements [Store].
func (s *RedisStore) Update(ctx context.Context, key string, fn func(st *State)) (State, error) {
	const maxRetries = 4
	redisKey := s.key(key)

	for i := 0; i < maxRetries; i++ {
		var result State
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			var state State
			data, err := tx.Get(ctx, redisKey).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				state, err = decodeState(data)
				if err != nil {
					return err
				}
			}

			fn(&state)
			result = state

			encoded := encodeState(state)
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, redisKey, encoded, s.stateTTL(state))
				return nil
			})
			return err
		}, redisKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return State{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return result, nil
	}

	return State{}, fmt.Errorf("%w: transaction contention on %s", ErrBackendUnavailable, key)
}

// Delete implements [Store].
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = s.key(key)
	}
	if err := s.redis.Del(ctx, redisKeys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// stateTTL bounds how long a record is worth keeping. Past the lock expiry
// (or the retention horizon) the lazy rollover would reset the record
// anyway, so letting Redis drop it is equivalent and keeps the keyspace
// bounded.
func (s *RedisStore) stateTTL(state State) time.Duration {
	expiry := state.WindowStart.Add(s.retention)
	if !state.LockedUntil.IsZero() && state.LockedUntil.After(expiry) {
		expiry = state.LockedUntil
	}
	ttl := time.Until(expiry)
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func encodeState(state State) []byte {
	var buf bytes.Buffer
	buf.WriteByte(stateRecordVersion1)
	_ = binary.Write(&buf, binary.BigEndian, uint32(state.Count))
	_ = binary.Write(&buf, binary.BigEndian, state.WindowStart.UnixMilli())

	var lockedUntil int64
	if !state.LockedUntil.IsZero() {
		lockedUntil = state.LockedUntil.UnixMilli()
	}
	_ = binary.Write(&buf, binary.BigEndian, lockedUntil)

	return buf.Bytes()
}

func decodeState(data []byte) (State, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return State{}, err
	}
	if version != stateRecordVersion1 {
		return State{}, errors.New("invalid attempt record version")
	}

	var count uint32
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return State{}, err
	}
	var windowStart, lockedUntil int64
	if err := binary.Read(reader, binary.BigEndian, &windowStart); err != nil {
		return State{}, err
	}
	if err := binary.Read(reader, binary.BigEndian, &lockedUntil); err != nil {
		return State{}, err
	}

	state := State{
		Count:       int(count),
		WindowStart: time.UnixMilli(windowStart),
	}
	if lockedUntil != 0 {
		state.LockedUntil = time.UnixMilli(lockedUntil)
	}
	return state, nil
}
