package market

import "github.com/pkg/errors"

var (
	// ErrInvalidMode is returned when the engine factory is given an
	// unrecognized execution mode.
	ErrInvalidMode = errors.New("invalid execution mode")

	// ErrEpisodeDone is returned when Step is called after the episode
	// reached a terminal state. Callers must Reset first.
	ErrEpisodeDone = errors.New("episode is done, reset before stepping")
)
