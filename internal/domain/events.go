package domain

// EventType names the state changes broadcast to connected clients.
type EventType string

const (
	EventRosterChanged        EventType = "rosterChanged"
	EventSessionStatusChanged EventType = "sessionStatusChanged"
	EventQuestionChanged      EventType = "questionChanged"
	EventQuestionClosed       EventType = "questionClosed"
	EventScoreChanged         EventType = "scoreChanged"
)

// Event is a state-change notification for one session. Exactly the
// fields relevant to the event type are populated.
type Event struct {
	Type        EventType       `json:"type"`
	SessionID   string          `json:"sessionId"`
	Status      SessionStatus   `json:"status,omitempty"`
	Roster      []Participant   `json:"roster,omitempty"`
	Question    *ActiveQuestion `json:"question,omitempty"`
	Result      *QuestionResult `json:"result,omitempty"`
	Leaderboard *Leaderboard    `json:"leaderboard,omitempty"`
}

// Snapshot is the authoritative session state handed to a client on
// (re)connect, before any incremental events.
type Snapshot struct {
	Session     Session         `json:"session"`
	Roster      []Participant   `json:"roster"`
	Question    *ActiveQuestion `json:"question,omitempty"`
	Leaderboard Leaderboard     `json:"leaderboard"`
}
