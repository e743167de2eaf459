package domain

import "sort"

// QuestionSeconds is the countdown allotted to each question.
const QuestionSeconds = 15

// Score converts remaining time into points. Incorrect answers pay nothing;
// correct answers pay 66 points per remaining second with a floor of 100,
// so even an answer landed at zero seconds is worth 100.
func Score(timerSecondsRemaining int, correct bool) int {
	if !correct {
		return 0
	}
	points := timerSecondsRemaining * 66
	if points < 100 {
		return 100
	}
	return points
}

// StartGame moves a lobby into its first question.
func (g *GameState) StartGame() error {
	if g.Status != StatusLobby {
		return ErrInvalidTransition
	}
	g.Status = StatusQuestion
	g.TimerSeconds = QuestionSeconds
	return nil
}

// Tick advances the countdown by one second while a question is live.
// Reaching exactly zero reveals the answer as part of the same tick.
func (g *GameState) Tick() {
	if g.Status != StatusQuestion || g.TimerSeconds <= 0 {
		return
	}
	g.TimerSeconds--
	if g.TimerSeconds == 0 {
		g.Status = StatusShowAnswer
	}
}

// ShowLeaderboard moves from the answer reveal to the standings.
func (g *GameState) ShowLeaderboard() error {
	if g.Status != StatusShowAnswer {
		return ErrInvalidTransition
	}
	g.Status = StatusLeaderboard
	return nil
}

// AdvanceQuestion moves from the standings to the next question, clearing
// every player's answered flag, or to the final podium when the current
// question was the last one. The index is frozen on finish.
func (g *GameState) AdvanceQuestion() error {
	if g.Status != StatusLeaderboard {
		return ErrInvalidTransition
	}
	if g.CurrentQuestionIndex >= len(g.Questions)-1 {
		g.Status = StatusFinished
		return nil
	}
	g.CurrentQuestionIndex++
	g.Status = StatusQuestion
	g.TimerSeconds = QuestionSeconds
	for i := range g.Participants {
		g.Participants[i].HasAnswered = false
	}
	return nil
}

// CurrentQuestion returns the question the room is currently on.
func (g *GameState) CurrentQuestion() (Question, error) {
	if g.Status == StatusFinished || g.CurrentQuestionIndex < 0 || g.CurrentQuestionIndex >= len(g.Questions) {
		return Question{}, ErrNoActiveQuestion
	}
	return g.Questions[g.CurrentQuestionIndex], nil
}

// FindParticipant returns a pointer into the roster for in-place updates.
func (g *GameState) FindParticipant(id string) (*Participant, bool) {
	for i := range g.Participants {
		if g.Participants[i].ID == id {
			return &g.Participants[i], true
		}
	}
	return nil, false
}

// UpsertParticipant replaces the entry with the same ID or appends a new
// one. Rejoining under the same session id never duplicates.
func (g *GameState) UpsertParticipant(p Participant) {
	for i := range g.Participants {
		if g.Participants[i].ID == p.ID {
			g.Participants[i] = p
			return
		}
	}
	g.Participants = append(g.Participants, p)
}

// Leaderboard returns the roster sorted by score descending, name ascending
// on ties.
func (g *GameState) Leaderboard() []Participant {
	out := append([]Participant(nil), g.Participants...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}
