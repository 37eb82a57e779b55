package domain

import "time"

// SessionStatus is the lifecycle state of a live game session.
// Transitions are forward-only: lobby -> ongoing -> ended.
type SessionStatus string

const (
	StatusLobby   SessionStatus = "lobby"
	StatusOngoing SessionStatus = "ongoing"
	StatusEnded   SessionStatus = "ended"
)

// ParticipantStatus tracks connection liveness. Participants are never
// hard-deleted during a session so late score lookups stay valid.
type ParticipantStatus string

const (
	ParticipantActive   ParticipantStatus = "active"
	ParticipantInactive ParticipantStatus = "inactive"
)

// Session is a live hosting of a quiz, joinable by PIN while in the lobby.
type Session struct {
	ID                string        `json:"id"`
	QuizID            string        `json:"quizId"`
	HostOwnerID       string        `json:"hostOwnerId"`
	PIN               string        `json:"pin"`
	Status            SessionStatus `json:"status"`
	CurrentQuestionID string        `json:"currentQuestionId,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// Participant is a player who joined a session. JoinOrder is assigned
// sequentially and doubles as the leaderboard tie-breaker.
type Participant struct {
	ID        string            `json:"id"`
	SessionID string            `json:"sessionId"`
	Nickname  string            `json:"nickname"`
	Status    ParticipantStatus `json:"status"`
	JoinOrder int               `json:"joinOrder"`
	JoinedAt  time.Time         `json:"joinedAt"`
}

// QuizStatus marks whether a quiz is still editable or ready to host.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
)

// Quiz is the question content a session plays through. It is read-only
// during live play; sessions snapshot it at creation time.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	OwnerID     string     `json:"ownerId,omitempty"`
	Status      QuizStatus `json:"status,omitempty"`
	Questions   []Question `json:"questions"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string   `json:"id"`
	QuizID  string   `json:"quizId,omitempty"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId,omitempty"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
}

// CorrectOptionID returns the designated correct option, or "" if the
// question content is malformed.
func (q Question) CorrectOptionID() string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID
		}
	}
	return ""
}

// AnswerSubmission records a player's answer to one question. An empty
// SelectedOptionID means the answer window elapsed without a choice.
type AnswerSubmission struct {
	ParticipantID    string    `json:"participantId"`
	QuestionID       string    `json:"questionId"`
	SelectedOptionID string    `json:"selectedOptionId,omitempty"`
	Correct          bool      `json:"correct"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// ScoreEntry is the accumulated score for one participant in one session.
// TotalScore never decreases.
type ScoreEntry struct {
	ParticipantID string `json:"participantId"`
	SessionID     string `json:"sessionId"`
	TotalScore    int    `json:"totalScore"`
}

// LeaderboardEntry is a ranked view of a participant's standing.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	Nickname      string `json:"nickname"`
	TotalScore    int    `json:"totalScore"`
	Rank          int    `json:"rank"`
}

// Leaderboard captures the ordered standings for a session. Final is set
// once the session has ended and the standings are frozen.
type Leaderboard struct {
	SessionID string             `json:"sessionId"`
	Entries   []LeaderboardEntry `json:"entries"`
	Final     bool               `json:"final"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// OptionView is an option as shown to players: no correctness flag.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ActiveQuestion describes the question currently open for answers.
// ActivatedAt and Deadline are server timestamps; clients derive their
// countdown from them instead of a local clock.
type ActiveQuestion struct {
	ID          string       `json:"id"`
	Index       int          `json:"index"`
	Total       int          `json:"total"`
	Text        string       `json:"text"`
	Options     []OptionView `json:"options"`
	ActivatedAt time.Time    `json:"activatedAt"`
	Deadline    time.Time    `json:"deadline"`
}

// QuestionResult is published when a question closes.
type QuestionResult struct {
	QuestionID      string `json:"questionId"`
	CorrectOptionID string `json:"correctOptionId"`
	Answered        int    `json:"answered"`
	LastQuestion    bool   `json:"lastQuestion"`
}
