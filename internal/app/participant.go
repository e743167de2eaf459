package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"streekhook/internal/domain"
)

// ProfileStore holds the session-local identity for each connected client.
// Its lifetime is the client session: it survives room changes, not
// restarts, and must never be treated as durable identity.
type ProfileStore interface {
	SaveProfile(sessionID string, profile domain.UserProfile)
	LoadProfile(sessionID string) (domain.UserProfile, bool)
}

// PollInterval is how often a participant re-reads the shared document.
const PollInterval = time.Second

// Participant drives one player's session: join, answer, and a poll loop
// that mirrors host-driven phase changes. All writes go through full
// read-modify-write of the room document against the most recently polled
// snapshot, which is the store model's documented weakness, not a bug here.
type Participant struct {
	store     RoomStore
	profiles  ProfileStore
	clock     clockwork.Clock
	sessionID string

	mu       sync.Mutex
	roomCode string
	snapshot *domain.GameState
	answered bool
	gone     bool
}

// NewParticipant creates a player bound to sessionID. An empty sessionID
// gets a fresh one; reusing an id lets a player rejoin as themselves.
func NewParticipant(store RoomStore, profiles ProfileStore, sessionID string) *Participant {
	return NewParticipantWithClock(store, profiles, sessionID, clockwork.NewRealClock())
}

// NewParticipantWithClock allows deterministic polling in tests.
func NewParticipantWithClock(store RoomStore, profiles ProfileStore, sessionID string, clock clockwork.Clock) *Participant {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Participant{
		store:     store,
		profiles:  profiles,
		clock:     clock,
		sessionID: sessionID,
	}
}

// SessionID returns the stable per-session identifier.
func (p *Participant) SessionID() string {
	return p.sessionID
}

// RestoreProfile returns the identity saved earlier in this client session.
func (p *Participant) RestoreProfile() (domain.UserProfile, bool) {
	return p.profiles.LoadProfile(p.sessionID)
}

// Join writes this player into the room's roster, replacing any previous
// entry under the same session id. The document is read and written back
// whole, so a concurrent join can lose the race.
func (p *Participant) Join(ctx context.Context, roomCode string, profile domain.UserProfile) (domain.GameState, error) {
	current, ok, err := p.store.Load(ctx, roomCode)
	if err != nil {
		return domain.GameState{}, fmt.Errorf("load room %s: %w", roomCode, err)
	}
	if !ok {
		return domain.GameState{}, domain.ErrRoomNotFound
	}

	current.UpsertParticipant(domain.Participant{
		ID:     p.sessionID,
		Name:   profile.Name,
		Avatar: profile.Avatar,
	})
	if err := p.store.Save(ctx, roomCode, current); err != nil {
		return domain.GameState{}, fmt.Errorf("save join: %w", err)
	}

	p.profiles.SaveProfile(p.sessionID, profile)

	p.mu.Lock()
	p.roomCode = roomCode
	snap := current.Clone()
	p.snapshot = &snap
	p.answered = false
	p.gone = false
	p.mu.Unlock()

	log.Info().Str("room", roomCode).Str("name", profile.Name).Msg("participant joined")
	return current, nil
}

// SubmitAnswer scores the chosen option against the most recently polled
// snapshot and writes the player's own roster entry back with the whole
// document. A second submission for the same question is a no-op.
func (p *Participant) SubmitAnswer(ctx context.Context, optionIndex int) (domain.AnswerResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.snapshot == nil {
		return domain.AnswerResult{}, domain.ErrRoomNotFound
	}
	if p.answered {
		if entry, ok := p.snapshot.FindParticipant(p.sessionID); ok {
			return domain.AnswerResult{TotalScore: entry.Score}, nil
		}
		return domain.AnswerResult{}, nil
	}

	// Answers are only open while the question is live: not in the lobby,
	// not after the reveal.
	if p.snapshot.Status != domain.StatusQuestion {
		return domain.AnswerResult{}, domain.ErrNoActiveQuestion
	}
	question, err := p.snapshot.CurrentQuestion()
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return domain.AnswerResult{}, domain.ErrOptionNotFound
	}

	entry, ok := p.snapshot.FindParticipant(p.sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrParticipantNotFound
	}

	correct := optionIndex == question.CorrectIndex
	points := domain.Score(p.snapshot.TimerSeconds, correct)
	entry.Score += points
	entry.HasAnswered = true
	entry.LastAnswerCorrect = &correct

	// The snapshot may lag the host's latest tick or status write; saving
	// it whole can roll those fields back until the next host write. That
	// is the contract of the overwrite store, preserved on purpose.
	if err := p.store.Save(ctx, p.roomCode, *p.snapshot); err != nil {
		return domain.AnswerResult{}, fmt.Errorf("save answer: %w", err)
	}
	p.answered = true

	return domain.AnswerResult{Correct: correct, Awarded: points, TotalScore: entry.Score}, nil
}

// Run polls the shared document until ctx is done or the room disappears.
// The ticker is stopped deterministically on the way out.
func (p *Participant) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !p.poll(ctx) {
				return
			}
		}
	}
}

// poll refreshes the local snapshot. It returns false once the room has
// vanished from the store, which evicts the player.
func (p *Participant) poll(ctx context.Context) bool {
	p.mu.Lock()
	code := p.roomCode
	p.mu.Unlock()
	if code == "" {
		return true
	}

	latest, ok, err := p.store.Load(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("poll room")
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !ok {
		p.gone = true
		p.snapshot = nil
		return false
	}

	prev := p.snapshot
	if latest.Status == domain.StatusQuestion &&
		(prev == nil || prev.Status != domain.StatusQuestion || prev.CurrentQuestionIndex != latest.CurrentQuestionIndex) {
		p.answered = false
	}
	p.snapshot = &latest
	return true
}

// Snapshot returns the last polled state, ok=false before a join or after
// the room vanished.
func (p *Participant) Snapshot() (domain.GameState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot == nil {
		return domain.GameState{}, false
	}
	return p.snapshot.Clone(), true
}

// Gone reports whether the room disappeared out from under the player.
func (p *Participant) Gone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gone
}
