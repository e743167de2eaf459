package app

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"streekhook/internal/domain"
)

// RoomStore abstracts the shared per-room document (in-memory, Redis, etc).
// Save replaces the whole document for that code; concurrent writers
// converge by last write wins, nothing stronger is guaranteed.
type RoomStore interface {
	Save(ctx context.Context, roomCode string, state domain.GameState) error
	Load(ctx context.Context, roomCode string) (domain.GameState, bool, error)
}

// QuizGenerator produces the question list for a topic. Failure aborts room
// creation; no partial room is ever stored.
type QuizGenerator interface {
	Generate(ctx context.Context, topic string) ([]domain.Question, error)
}

const (
	// CountdownInterval is the wall-clock period of the question timer.
	CountdownInterval = time.Second
	// MergeInterval is how often the host adopts the roster from the store.
	MergeInterval = 1500 * time.Millisecond
)

// Host drives one quiz room: it owns the question set, the phase machine
// and the countdown, and periodically adopts the participant roster from
// the shared document. Every other field always wins over whatever a
// participant write left behind in the store.
type Host struct {
	store RoomStore
	gen   QuizGenerator
	clock clockwork.Clock
	rnd   *rand.Rand

	mu    sync.Mutex
	state *domain.GameState
}

func NewHost(store RoomStore, gen QuizGenerator) *Host {
	return NewHostWithClock(store, gen, clockwork.NewRealClock())
}

// NewHostWithClock allows deterministic countdowns in tests.
func NewHostWithClock(store RoomStore, gen QuizGenerator, clock clockwork.Clock) *Host {
	return &Host{
		store: store,
		gen:   gen,
		clock: clock,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom generates a quiz for the topic and opens a lobby under a fresh
// room code. A generation failure leaves nothing behind in the store.
func (h *Host) CreateRoom(ctx context.Context, topic string) (domain.GameState, error) {
	questions, err := h.gen.Generate(ctx, topic)
	if err != nil {
		return domain.GameState{}, fmt.Errorf("generate quiz for %q: %w", topic, err)
	}

	state := domain.GameState{
		RoomCode:     h.newRoomCode(),
		Status:       domain.StatusLobby,
		Questions:    questions,
		Participants: []domain.Participant{},
		StartTime:    h.clock.Now().UnixMilli(),
		TimerSeconds: domain.QuestionSeconds,
	}
	if err := h.store.Save(ctx, state.RoomCode, state); err != nil {
		return domain.GameState{}, fmt.Errorf("save new room: %w", err)
	}

	h.mu.Lock()
	h.state = &state
	h.mu.Unlock()

	log.Info().Str("room", state.RoomCode).Str("topic", topic).
		Int("questions", len(questions)).Msg("room created")
	return state.Clone(), nil
}

// newRoomCode returns a 6-digit numeric code. Codes are not checked against
// live rooms; a colliding code simply takes over the key.
func (h *Host) newRoomCode() string {
	return strconv.Itoa(100000 + h.rnd.Intn(900000))
}

// StartGame opens the first question.
func (h *Host) StartGame(ctx context.Context) error {
	return h.apply(ctx, (*domain.GameState).StartGame)
}

// ShowLeaderboard moves from the answer reveal to the standings.
func (h *Host) ShowLeaderboard(ctx context.Context) error {
	return h.apply(ctx, (*domain.GameState).ShowLeaderboard)
}

// NextQuestion advances past the standings, finishing the game when the
// last question has been played.
func (h *Host) NextQuestion(ctx context.Context) error {
	return h.apply(ctx, (*domain.GameState).AdvanceQuestion)
}

func (h *Host) apply(ctx context.Context, mutate func(*domain.GameState) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return domain.ErrRoomNotFound
	}
	if err := mutate(h.state); err != nil {
		return err
	}
	return h.store.Save(ctx, h.state.RoomCode, *h.state)
}

// Snapshot returns a copy of the host's in-memory state.
func (h *Host) Snapshot() (domain.GameState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil {
		return domain.GameState{}, false
	}
	return h.state.Clone(), true
}

// Run drives the countdown and the roster merge until ctx is done. Both
// tickers are stopped on the way out.
func (h *Host) Run(ctx context.Context) {
	countdown := h.clock.NewTicker(CountdownInterval)
	defer countdown.Stop()
	merge := h.clock.NewTicker(MergeInterval)
	defer merge.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-countdown.Chan():
			h.tick(ctx)
		case <-merge.Chan():
			h.mergeParticipants(ctx)
		}
	}
}

// tick decrements the live countdown and persists the result so players
// score against the real remaining time. Reveal happens on the same tick
// that hits zero.
func (h *Host) tick(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == nil || h.state.Status != domain.StatusQuestion || h.state.TimerSeconds <= 0 {
		return
	}
	h.state.Tick()
	if err := h.store.Save(ctx, h.state.RoomCode, *h.state); err != nil {
		log.Error().Err(err).Str("room", h.state.RoomCode).Msg("persist countdown tick")
	}
}

// mergeParticipants adopts the roster from the shared document and nothing
// else: status, index, timer and questions stay host-owned even when a
// stale participant write rolled them back in the store.
func (h *Host) mergeParticipants(ctx context.Context) {
	h.mu.Lock()
	var code string
	if h.state != nil {
		code = h.state.RoomCode
	}
	h.mu.Unlock()
	if code == "" {
		return
	}

	latest, ok, err := h.store.Load(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("poll roster")
		return
	}
	if !ok {
		return
	}

	h.mu.Lock()
	if h.state != nil && h.state.RoomCode == code {
		h.state.Participants = latest.Participants
	}
	h.mu.Unlock()
}
