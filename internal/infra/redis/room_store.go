package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"streekhook/internal/domain"
)

// keyPrefix namespaces room documents, mirroring the storage key of the
// original browser app.
const keyPrefix = "streekhook:state:"

// RoomStore persists each room as a single JSON document under
// streekhook:state:<code>. Writes replace the whole document and refresh
// the TTL, so abandoned rooms expire instead of piling up; concurrent
// writers get last-write-wins and nothing stronger.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

func (s *RoomStore) Save(ctx context.Context, roomCode string, state domain.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", roomCode, err)
	}
	return s.client.Set(ctx, s.key(roomCode), data, s.ttl).Err()
}

func (s *RoomStore) Load(ctx context.Context, roomCode string) (domain.GameState, bool, error) {
	raw, err := s.client.Get(ctx, s.key(roomCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GameState{}, false, nil
	}
	if err != nil {
		return domain.GameState{}, false, err
	}

	// A corrupt or shape-incompatible document is indistinguishable from no
	// document for callers; they treat the room as over.
	var state domain.GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.GameState{}, false, nil
	}
	if state.Status == "" {
		return domain.GameState{}, false, nil
	}
	return state, true, nil
}

func (s *RoomStore) key(roomCode string) string {
	return keyPrefix + roomCode
}
