package domain

// Question is a single multiple-choice question. Immutable once generated.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Participant is one player's entry in the shared roster.
// LastAnswerCorrect stays nil until the player's first answer of the game.
type Participant struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Avatar            string `json:"avatar"`
	Score             int    `json:"score"`
	LastAnswerCorrect *bool  `json:"lastAnswerCorrect"`
	HasAnswered       bool   `json:"hasAnswered"`
}

// Status is the phase a room is in. FINISHED is terminal.
type Status string

const (
	StatusLobby       Status = "LOBBY"
	StatusQuestion    Status = "QUESTION"
	StatusShowAnswer  Status = "SHOW_ANSWER"
	StatusLeaderboard Status = "LEADERBOARD"
	StatusFinished    Status = "FINISHED"
)

// GameState is the full shared document for one room. Every write to the
// room store replaces it wholesale; there is no partial update.
type GameState struct {
	RoomCode             string        `json:"roomCode"`
	Status               Status        `json:"status"`
	Questions            []Question    `json:"questions"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	Participants         []Participant `json:"participants"`
	StartTime            int64         `json:"startTime"`
	TimerSeconds         int           `json:"timerSeconds"`
}

// UserProfile is a session-local identity, independent of any room.
type UserProfile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// AnswerResult summarizes the outcome of a submission for a single player.
type AnswerResult struct {
	Correct    bool `json:"correct"`
	Awarded    int  `json:"awarded"`
	TotalScore int  `json:"totalScore"`
}

// Clone returns a deep copy of the state so callers can mutate freely.
func (g GameState) Clone() GameState {
	out := g
	out.Questions = make([]Question, len(g.Questions))
	for i, q := range g.Questions {
		out.Questions[i] = q
		out.Questions[i].Options = append([]string(nil), q.Options...)
	}
	out.Participants = make([]Participant, len(g.Participants))
	for i, p := range g.Participants {
		out.Participants[i] = p
		if p.LastAnswerCorrect != nil {
			correct := *p.LastAnswerCorrect
			out.Participants[i].LastAnswerCorrect = &correct
		}
	}
	return out
}
