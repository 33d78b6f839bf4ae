package domain

import "errors"

var (
	// ErrGameNotFound is returned when no game exists for a code.
	ErrGameNotFound = errors.New("game not found")
	// ErrEmptyQuestionSet is returned when a game is created with no questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrQuestionSetNotFound indicates the stored question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrGameFull is returned when the roster is at capacity.
	ErrGameFull = errors.New("game is full")
)
