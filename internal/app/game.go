package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"uizzy-live-service/internal/domain"
)

// Game is the authoritative state of one live session: roster, question
// pointer, collected answers, scores, and the subscriber fan-out. All
// mutations go through the game's mutex; submissions are insert-if-absent
// under that lock so duplicate attempts from retries or reloads are
// rejected rather than double-scored.
type Game struct {
	session domain.Session
	quiz    domain.Quiz
	hostKey string
	window  time.Duration
	now     func() time.Time

	mu           sync.RWMutex
	participants map[string]*domain.Participant
	joinOrder    []string
	scores       map[string]*domain.ScoreEntry
	submissions  map[string]map[string]domain.AnswerSubmission
	currentIdx   int
	questionOpen bool
	activatedAt  time.Time
	deadline     time.Time
	timer        *time.Timer
	subscribers  map[chan domain.Event]struct{}
}

// NewGame builds a lobby-state game around an immutable quiz snapshot.
func NewGame(session domain.Session, quiz domain.Quiz, hostKey string, window time.Duration) *Game {
	return NewGameWithClock(session, quiz, hostKey, window, time.Now)
}

// NewGameWithClock allows deterministic timestamps in tests.
func NewGameWithClock(session domain.Session, quiz domain.Quiz, hostKey string, window time.Duration, now func() time.Time) *Game {
	session.Status = domain.StatusLobby
	session.CreatedAt = now()
	return &Game{
		session:      session,
		quiz:         quiz,
		hostKey:      hostKey,
		window:       window,
		now:          now,
		participants: make(map[string]*domain.Participant),
		scores:       make(map[string]*domain.ScoreEntry),
		submissions:  make(map[string]map[string]domain.AnswerSubmission),
		currentIdx:   -1,
		subscribers:  make(map[chan domain.Event]struct{}),
	}
}

// ID returns the session id.
func (g *Game) ID() string { return g.session.ID }

// PIN returns the join code.
func (g *Game) PIN() string { return g.session.PIN }

// HostKey returns the secret the host presents to control the game.
func (g *Game) HostKey() string { return g.hostKey }

// Status returns the current lifecycle state.
func (g *Game) Status() domain.SessionStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session.Status
}

// Session returns a copy of the session record.
func (g *Game) Session() domain.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Join adds a player to the roster while the session is in the lobby.
// Nickname uniqueness is case-insensitive among active participants.
func (g *Game) Join(nickname string) (domain.Participant, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return domain.Participant{}, domain.ErrInvalidNickname
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session.Status != domain.StatusLobby {
		return domain.Participant{}, domain.ErrSessionNotJoinable
	}
	for _, id := range g.joinOrder {
		p := g.participants[id]
		if p.Status == domain.ParticipantActive && strings.EqualFold(p.Nickname, nickname) {
			return domain.Participant{}, domain.ErrDuplicateNickname
		}
	}

	participant := &domain.Participant{
		ID:        uuid.NewString(),
		SessionID: g.session.ID,
		Nickname:  nickname,
		Status:    domain.ParticipantActive,
		JoinOrder: len(g.joinOrder) + 1,
		JoinedAt:  g.now(),
	}
	g.participants[participant.ID] = participant
	g.joinOrder = append(g.joinOrder, participant.ID)
	g.scores[participant.ID] = &domain.ScoreEntry{
		ParticipantID: participant.ID,
		SessionID:     g.session.ID,
	}

	g.broadcastLocked(domain.Event{
		Type:      domain.EventRosterChanged,
		SessionID: g.session.ID,
		Roster:    g.rosterLocked(),
	})
	return *participant, nil
}

// MarkInactive flags a disconnected player. Calling it twice, or with an
// unknown id, is a no-op.
func (g *Game) MarkInactive(participantID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.participants[participantID]
	if !ok || p.Status == domain.ParticipantInactive {
		return
	}
	p.Status = domain.ParticipantInactive
	g.broadcastLocked(domain.Event{
		Type:      domain.EventRosterChanged,
		SessionID: g.session.ID,
		Roster:    g.rosterLocked(),
	})
}

// ListActive returns the active participants in join order.
func (g *Game) ListActive() []domain.Participant {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.activeLocked()
}

// Start moves the session from lobby to ongoing and opens the first question.
func (g *Game) Start() (domain.ActiveQuestion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.session.Status {
	case domain.StatusEnded:
		return domain.ActiveQuestion{}, domain.ErrSessionEnded
	case domain.StatusOngoing:
		return domain.ActiveQuestion{}, domain.ErrInvalidTransition
	}
	if len(g.quiz.Questions) == 0 {
		return domain.ActiveQuestion{}, domain.ErrNoQuestions
	}
	if len(g.activeLocked()) == 0 {
		return domain.ActiveQuestion{}, domain.ErrNoActiveParticipants
	}

	g.session.Status = domain.StatusOngoing
	g.broadcastLocked(domain.Event{
		Type:      domain.EventSessionStatusChanged,
		SessionID: g.session.ID,
		Status:    g.session.Status,
	})

	g.currentIdx = 0
	g.openQuestionLocked()
	return *g.activeQuestionLocked(), nil
}

// CloseQuestion closes the answer window for the named question, recording
// a null submission for every active participant who has not answered.
// Host advance and window expiry both route here; the second trigger is a
// no-op. Reports whether this call performed the close.
func (g *Game) CloseQuestion(questionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closeQuestionLocked(questionID)
}

// AdvanceFrom closes the named question and moves to the next one, or ends
// the session if it was the last. A call naming a question the game has
// already moved past is a no-op, so rapid double-advance cannot skip
// questions.
func (g *Game) AdvanceFrom(questionID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.session.Status {
	case domain.StatusEnded:
		return false, domain.ErrSessionEnded
	case domain.StatusLobby:
		return false, domain.ErrInvalidTransition
	}

	q, ok := g.currentQuestionLocked()
	if !ok {
		// Corrupted question pointer is fatal to the session.
		g.endLocked()
		return false, domain.ErrSessionEnded
	}
	if q.ID != questionID {
		return false, nil
	}

	g.closeQuestionLocked(q.ID)
	if g.currentIdx >= len(g.quiz.Questions)-1 {
		g.endLocked()
		return true, nil
	}

	g.currentIdx++
	g.openQuestionLocked()
	return true, nil
}

// End finishes an ongoing session on explicit host exit.
func (g *Game) End() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.session.Status {
	case domain.StatusEnded:
		return domain.ErrSessionEnded
	case domain.StatusLobby:
		return domain.ErrInvalidTransition
	}
	g.endLocked()
	return nil
}

// Submit records a participant's answer to the open question, scores it,
// and updates the leaderboard. At most one submission per participant and
// question is accepted.
func (g *Game) Submit(participantID, questionID, optionID string) (domain.AnswerSubmission, int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session.Status == domain.StatusEnded {
		return domain.AnswerSubmission{}, 0, domain.ErrSessionEnded
	}
	participant, ok := g.participants[participantID]
	if !ok {
		return domain.AnswerSubmission{}, 0, domain.ErrParticipantNotFound
	}

	q, open := g.currentQuestionLocked()
	if !open || !g.questionOpen || q.ID != questionID {
		return domain.AnswerSubmission{}, 0, domain.ErrQuestionClosed
	}
	if g.window > 0 && g.now().After(g.deadline) {
		return domain.AnswerSubmission{}, 0, domain.ErrQuestionClosed
	}

	var selected *domain.Option
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			selected = &q.Options[i]
			break
		}
	}
	if selected == nil {
		return domain.AnswerSubmission{}, 0, domain.ErrOptionNotFound
	}

	if _, exists := g.submissions[q.ID][participantID]; exists {
		return domain.AnswerSubmission{}, 0, domain.ErrAlreadySubmitted
	}

	submission := domain.AnswerSubmission{
		ParticipantID:    participantID,
		QuestionID:       q.ID,
		SelectedOptionID: optionID,
		Correct:          selected.Correct,
		SubmittedAt:      g.now(),
	}
	g.recordSubmissionLocked(submission)

	total := g.scores[participant.ID].TotalScore
	lb := g.rankingsLocked()
	g.broadcastLocked(domain.Event{
		Type:        domain.EventScoreChanged,
		SessionID:   g.session.ID,
		Leaderboard: &lb,
	})

	if g.allAnsweredLocked(q.ID) {
		g.closeQuestionLocked(q.ID)
	}
	return submission, total, nil
}

// Rankings returns the current standings.
func (g *Game) Rankings() domain.Leaderboard {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rankingsLocked()
}

// Submissions returns the recorded answers for one question, keyed by
// participant id.
func (g *Game) Submissions(questionID string) map[string]domain.AnswerSubmission {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]domain.AnswerSubmission, len(g.submissions[questionID]))
	for id, sub := range g.submissions[questionID] {
		out[id] = sub
	}
	return out
}

// Subscribe registers an event channel and returns the authoritative state
// snapshot to send before any incremental events. The caller must invoke
// the cancel function to avoid leaks.
func (g *Game) Subscribe() (domain.Snapshot, <-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	snapshot := g.snapshotLocked()
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return snapshot, ch, cancel
}

// Snapshot returns the authoritative state for resync after reconnects.
func (g *Game) Snapshot() domain.Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

func (g *Game) openQuestionLocked() {
	q := g.quiz.Questions[g.currentIdx]
	g.session.CurrentQuestionID = q.ID
	g.questionOpen = true
	g.activatedAt = g.now()
	g.deadline = g.activatedAt.Add(g.window)
	if g.submissions[q.ID] == nil {
		g.submissions[q.ID] = make(map[string]domain.AnswerSubmission)
	}

	if g.timer != nil {
		g.timer.Stop()
	}
	if g.window > 0 {
		questionID := q.ID
		g.timer = time.AfterFunc(g.window, func() {
			g.CloseQuestion(questionID)
		})
	}

	g.broadcastLocked(domain.Event{
		Type:      domain.EventQuestionChanged,
		SessionID: g.session.ID,
		Question:  g.activeQuestionLocked(),
	})
}

func (g *Game) closeQuestionLocked(questionID string) bool {
	q, ok := g.currentQuestionLocked()
	if !ok || q.ID != questionID || !g.questionOpen {
		return false
	}
	g.questionOpen = false
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}

	// Every active participant gets exactly one submission per question;
	// the window elapsing counts as a definitive null answer.
	now := g.now()
	for _, id := range g.joinOrder {
		p := g.participants[id]
		if p.Status != domain.ParticipantActive {
			continue
		}
		if _, exists := g.submissions[q.ID][id]; exists {
			continue
		}
		g.recordSubmissionLocked(domain.AnswerSubmission{
			ParticipantID: id,
			QuestionID:    q.ID,
			Correct:       false,
			SubmittedAt:   now,
		})
	}

	lb := g.rankingsLocked()
	g.broadcastLocked(domain.Event{
		Type:      domain.EventQuestionClosed,
		SessionID: g.session.ID,
		Result: &domain.QuestionResult{
			QuestionID:      q.ID,
			CorrectOptionID: q.CorrectOptionID(),
			Answered:        len(g.submissions[q.ID]),
			LastQuestion:    g.currentIdx == len(g.quiz.Questions)-1,
		},
		Leaderboard: &lb,
	})
	return true
}

func (g *Game) endLocked() {
	if g.questionOpen {
		g.closeQuestionLocked(g.quiz.Questions[g.currentIdx].ID)
	}
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.session.Status = domain.StatusEnded

	lb := g.rankingsLocked()
	g.broadcastLocked(domain.Event{
		Type:        domain.EventSessionStatusChanged,
		SessionID:   g.session.ID,
		Status:      g.session.Status,
		Leaderboard: &lb,
	})
}

func (g *Game) recordSubmissionLocked(sub domain.AnswerSubmission) {
	if g.submissions[sub.QuestionID] == nil {
		g.submissions[sub.QuestionID] = make(map[string]domain.AnswerSubmission)
	}
	g.submissions[sub.QuestionID][sub.ParticipantID] = sub
	if sub.Correct {
		g.scores[sub.ParticipantID].TotalScore++
	}
}

func (g *Game) allAnsweredLocked(questionID string) bool {
	for _, id := range g.joinOrder {
		p := g.participants[id]
		if p.Status != domain.ParticipantActive {
			continue
		}
		if _, exists := g.submissions[questionID][id]; !exists {
			return false
		}
	}
	return true
}

func (g *Game) currentQuestionLocked() (domain.Question, bool) {
	if g.currentIdx < 0 || g.currentIdx >= len(g.quiz.Questions) {
		return domain.Question{}, false
	}
	return g.quiz.Questions[g.currentIdx], true
}

func (g *Game) activeQuestionLocked() *domain.ActiveQuestion {
	q, ok := g.currentQuestionLocked()
	if !ok || !g.questionOpen {
		return nil
	}
	options := make([]domain.OptionView, len(q.Options))
	for i, opt := range q.Options {
		options[i] = domain.OptionView{ID: opt.ID, Text: opt.Text}
	}
	return &domain.ActiveQuestion{
		ID:          q.ID,
		Index:       g.currentIdx + 1,
		Total:       len(g.quiz.Questions),
		Text:        q.Text,
		Options:     options,
		ActivatedAt: g.activatedAt,
		Deadline:    g.deadline,
	}
}

func (g *Game) rosterLocked() []domain.Participant {
	roster := make([]domain.Participant, 0, len(g.joinOrder))
	for _, id := range g.joinOrder {
		roster = append(roster, *g.participants[id])
	}
	return roster
}

func (g *Game) activeLocked() []domain.Participant {
	active := make([]domain.Participant, 0, len(g.joinOrder))
	for _, id := range g.joinOrder {
		if g.participants[id].Status == domain.ParticipantActive {
			active = append(active, *g.participants[id])
		}
	}
	return active
}

func (g *Game) rankingsLocked() domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(g.joinOrder))
	for _, id := range g.joinOrder {
		p := g.participants[id]
		if p.Status != domain.ParticipantActive {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: p.ID,
			Nickname:      p.Nickname,
			TotalScore:    g.scores[p.ID].TotalScore,
		})
	}

	// Score descending; ties go to the earlier joiner so the order is a
	// deterministic total order. Entries start in join order, so a stable
	// sort on score alone preserves the tie-break.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return domain.Leaderboard{
		SessionID: g.session.ID,
		Entries:   entries,
		Final:     g.session.Status == domain.StatusEnded,
		UpdatedAt: g.now(),
	}
}

func (g *Game) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Session:     g.session,
		Roster:      g.rosterLocked(),
		Question:    g.activeQuestionLocked(),
		Leaderboard: g.rankingsLocked(),
	}
}

func (g *Game) broadcastLocked(event domain.Event) {
	for ch := range g.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest update so a slow client cannot block the game.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
