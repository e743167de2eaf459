package app

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"streekhook/internal/domain"
)

func TestCreateRoomOpensLobby(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	host := NewHost(store, fixedGenerator{questions: fiveQuestions()})

	state, err := host.CreateRoom(ctx, "Animals")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	if !regexp.MustCompile(`^[0-9]{6}$`).MatchString(state.RoomCode) {
		t.Fatalf("expected 6-digit numeric room code, got %q", state.RoomCode)
	}
	if state.Status != domain.StatusLobby || state.TimerSeconds != 15 {
		t.Fatalf("expected LOBBY with timer 15, got %s/%d", state.Status, state.TimerSeconds)
	}
	if len(state.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(state.Questions))
	}
	if len(state.Participants) != 0 {
		t.Fatalf("expected empty roster, got %d", len(state.Participants))
	}

	stored, ok, err := store.Load(ctx, state.RoomCode)
	if err != nil || !ok {
		t.Fatalf("expected stored document, ok=%v err=%v", ok, err)
	}
	if stored.Status != domain.StatusLobby {
		t.Fatalf("stored status %s", stored.Status)
	}
}

func TestCreateRoomGenerationFailureLeavesNoRoom(t *testing.T) {
	store := newStubStore()
	host := NewHost(store, failingGenerator{})

	if _, err := host.CreateRoom(context.Background(), "Animals"); err == nil {
		t.Fatalf("expected generation error")
	}
	if n := store.count(); n != 0 {
		t.Fatalf("expected no documents after failed generation, got %d", n)
	}
}

func TestMergeAdoptsRosterOnly(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	host := NewHost(store, fixedGenerator{questions: fiveQuestions()})

	state, err := host.CreateRoom(ctx, "Animals")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := host.StartGame(ctx); err != nil {
		t.Fatalf("start game: %v", err)
	}

	// Simulate a stale participant write: old phase and timer, new roster.
	stale := state
	stale.Status = domain.StatusLobby
	stale.TimerSeconds = 15
	stale.Participants = []domain.Participant{{ID: "p1", Name: "Ada", Avatar: "🐱"}}
	if err := store.Save(ctx, state.RoomCode, stale); err != nil {
		t.Fatalf("save stale: %v", err)
	}

	host.mergeParticipants(ctx)

	merged, ok := host.Snapshot()
	if !ok {
		t.Fatalf("expected host state")
	}
	if len(merged.Participants) != 1 || merged.Participants[0].Name != "Ada" {
		t.Fatalf("expected roster adopted, got %+v", merged.Participants)
	}
	if merged.Status != domain.StatusQuestion {
		t.Fatalf("host-owned status rolled back to %s", merged.Status)
	}
	if merged.CurrentQuestionIndex != 0 || merged.TimerSeconds != 15 {
		t.Fatalf("host-owned fields changed: index=%d timer=%d", merged.CurrentQuestionIndex, merged.TimerSeconds)
	}
}

func TestTickPersistsCountdownAndReveals(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	host := NewHost(store, fixedGenerator{questions: fiveQuestions()})

	state, err := host.CreateRoom(ctx, "Animals")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := host.StartGame(ctx); err != nil {
		t.Fatalf("start game: %v", err)
	}

	host.tick(ctx)
	stored, _, _ := store.Load(ctx, state.RoomCode)
	if stored.TimerSeconds != 14 {
		t.Fatalf("expected persisted timer 14, got %d", stored.TimerSeconds)
	}

	for i := 0; i < 14; i++ {
		host.tick(ctx)
	}
	stored, _, _ = store.Load(ctx, state.RoomCode)
	if stored.TimerSeconds != 0 || stored.Status != domain.StatusShowAnswer {
		t.Fatalf("expected reveal at zero, got %s/%d", stored.Status, stored.TimerSeconds)
	}
}

func TestRunDrivesCountdownFromClock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewFakeClock()
	store := newStubStore()
	host := NewHostWithClock(store, fixedGenerator{questions: fiveQuestions()}, clock)

	state, err := host.CreateRoom(ctx, "Animals")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := host.StartGame(ctx); err != nil {
		t.Fatalf("start game: %v", err)
	}

	saves := store.saveCount()
	done := make(chan struct{})
	go func() {
		defer close(done)
		host.Run(ctx)
	}()

	clock.BlockUntil(2) // countdown and merge tickers registered
	clock.Advance(CountdownInterval)
	store.waitForSaves(t, saves+1)

	stored, _, _ := store.Load(ctx, state.RoomCode)
	if stored.TimerSeconds != 14 {
		t.Fatalf("expected timer 14 after one tick, got %d", stored.TimerSeconds)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop on cancel")
	}
}

// stubStore is a minimal in-test RoomStore so these tests stay inside the
// package without importing the memory infra.
type stubStore struct {
	mu     sync.Mutex
	rooms  map[string]domain.GameState
	saves  int
	savedC chan struct{}
}

func newStubStore() *stubStore {
	return &stubStore{
		rooms:  make(map[string]domain.GameState),
		savedC: make(chan struct{}, 64),
	}
}

func (s *stubStore) Save(_ context.Context, roomCode string, state domain.GameState) error {
	s.mu.Lock()
	s.rooms[roomCode] = state.Clone()
	s.saves++
	s.mu.Unlock()
	select {
	case s.savedC <- struct{}{}:
	default:
	}
	return nil
}

func (s *stubStore) Load(_ context.Context, roomCode string) (domain.GameState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.rooms[roomCode]
	if !ok {
		return domain.GameState{}, false, nil
	}
	return state.Clone(), true, nil
}

func (s *stubStore) delete(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomCode)
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

func (s *stubStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *stubStore) waitForSaves(t *testing.T, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if s.saveCount() >= want {
			return
		}
		select {
		case <-s.savedC:
		case <-deadline:
			t.Fatalf("timed out waiting for %d saves, have %d", want, s.saveCount())
		}
	}
}

type fixedGenerator struct {
	questions []domain.Question
}

func (g fixedGenerator) Generate(context.Context, string) ([]domain.Question, error) {
	return g.questions, nil
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string) ([]domain.Question, error) {
	return nil, errors.New("model unavailable")
}

func fiveQuestions() []domain.Question {
	questions := make([]domain.Question, 5)
	for i := range questions {
		questions[i] = domain.Question{
			ID:           "q" + string(rune('1'+i)),
			Text:         "Pick the second option",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 1,
		}
	}
	return questions
}
