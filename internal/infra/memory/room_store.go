package memory

import (
	"context"
	"sync"

	"streekhook/internal/domain"
)

// RoomStore is an in-memory implementation of app.RoomStore, standing in
// for the shared browser storage of the original design. Documents are kept
// for the lifetime of the process.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]domain.GameState
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]domain.GameState),
	}
}

func (s *RoomStore) Save(_ context.Context, roomCode string, state domain.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomCode] = state.Clone()
	return nil
}

func (s *RoomStore) Load(_ context.Context, roomCode string) (domain.GameState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.rooms[roomCode]
	if !ok {
		return domain.GameState{}, false, nil
	}
	return state.Clone(), true, nil
}

// Delete drops a room outright, ending the game for anyone still polling.
func (s *RoomStore) Delete(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomCode)
}
