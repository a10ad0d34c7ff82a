package app

import "errors"

var (
	ErrNotLoggedIn   = errors.New("not logged in")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrVoiceDisabled = errors.New("no speech synthesizer available")
)
