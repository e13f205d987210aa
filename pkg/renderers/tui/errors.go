package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrPromptDriver is returned when the renderer has no driver to ask with.
	ErrPromptDriver = errors.New("tui: prompt driver is nil")
)
