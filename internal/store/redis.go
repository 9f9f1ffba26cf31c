package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"telematics-bridge/internal/events"
)

var ErrNotFound = errors.New("snapshot not found")

// Snapshots keeps the last delivered event of each kind per device, so a
// dashboard can read current state without subscribing.
type Snapshots struct {
	rdb *redis.Client
	ttl time.Duration
}

// Snapshot is the stored form of one delivered event.
type Snapshot struct {
	Kind     events.Kind     `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
	Received time.Time       `json:"received"`
}

func NewRedis(ctx context.Context, addr string, db int, ttl time.Duration) (*Snapshots, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Snapshots{rdb: rdb, ttl: ttl}, nil
}

func (s *Snapshots) Close() error { return s.rdb.Close() }

func key(deviceID string, kind events.Kind) string {
	return "bridge:" + deviceID + ":last:" + string(kind)
}

// Name identifies the sink in logs and metrics.
func (s *Snapshots) Name() string { return "redis" }

// Send stores ev as the latest snapshot for its kind.
func (s *Snapshots) Send(ctx context.Context, deviceID string, ev events.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", ev.Kind, err)
	}
	b, err := json.Marshal(Snapshot{Kind: ev.Kind, Payload: payload, Received: ev.Received})
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key(deviceID, ev.Kind), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key(deviceID, ev.Kind), err)
	}
	return nil
}

func (s *Snapshots) Last(ctx context.Context, deviceID string, kind events.Kind) (Snapshot, error) {
	val, err := s.rdb.Get(ctx, key(deviceID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// LastAll returns the snapshots present for the given kinds. Missing or
// undecodable entries are skipped.
func (s *Snapshots) LastAll(ctx context.Context, deviceID string, kinds ...events.Kind) (map[events.Kind]Snapshot, error) {
	out := make(map[events.Kind]Snapshot, len(kinds))
	if len(kinds) == 0 {
		return out, nil
	}
	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = key(deviceID, k)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(str), &snap); err != nil {
			continue
		}
		out[kinds[i]] = snap
	}
	return out, nil
}
