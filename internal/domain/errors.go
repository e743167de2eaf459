package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no document exists for a room code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrGenerationFailed indicates the quiz generator errored or returned malformed data.
	ErrGenerationFailed = errors.New("quiz generation failed")
	// ErrInvalidTransition is returned when an action does not apply to the current phase.
	ErrInvalidTransition = errors.New("invalid phase transition")
	// ErrNoActiveQuestion is returned when the game has no question to act on.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrParticipantNotFound is returned when a player acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in room")
	// ErrOptionNotFound indicates a submitted option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrTopicNotFound indicates the question bank has no set for the topic.
	ErrTopicNotFound = errors.New("no questions for topic")
)
