package domain

import "errors"

var (
	// ErrPINExhausted is returned when the PIN retry budget runs out.
	ErrPINExhausted = errors.New("could not allocate a unique game pin")
	// ErrSessionNotFound is returned when no session matches the given id or PIN.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionNotJoinable is returned when joining a session that left the lobby.
	ErrSessionNotJoinable = errors.New("session is not joinable")
	// ErrDuplicateNickname is returned when the nickname is already taken in this session.
	ErrDuplicateNickname = errors.New("nickname already taken in this session")
	// ErrInvalidNickname is returned when joining with an empty nickname.
	ErrInvalidNickname = errors.New("nickname must not be empty")
	// ErrInvalidTransition is returned for any non-forward lifecycle transition.
	ErrInvalidTransition = errors.New("invalid session status transition")
	// ErrNoQuestions is returned when starting a session whose quiz has no questions.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrNoActiveParticipants is returned when starting a session with an empty roster.
	ErrNoActiveParticipants = errors.New("no active participants in session")
	// ErrSessionEnded is returned for any mutation attempted after the session ended.
	ErrSessionEnded = errors.New("session has ended")
	// ErrQuestionClosed is returned for submissions against a question that is not open.
	ErrQuestionClosed = errors.New("question is closed for answers")
	// ErrAlreadySubmitted is returned when a participant answers the same question twice.
	ErrAlreadySubmitted = errors.New("answer already submitted for this question")
	// ErrParticipantNotFound is returned when a player acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
)
