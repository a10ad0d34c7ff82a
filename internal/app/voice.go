package app

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Speaker converts AI replies to speech through whichever platform
// synthesizer is on PATH. Absence is not an error condition: the voice
// surface is disabled and the UI explains why.
type Speaker struct {
	binary string
	logger *Logger
}

// Probe order covers macOS (say), espeak variants and speech-dispatcher.
var synthesizers = []string{"say", "espeak-ng", "espeak", "spd-say"}

func NewSpeaker(logger *Logger) *Speaker {
	s := &Speaker{logger: logger}
	for _, name := range synthesizers {
		if _, err := exec.LookPath(name); err == nil {
			s.binary = name
			break
		}
	}
	return s
}

func (s *Speaker) Available() bool { return s.binary != "" }

// Speak voices text with mood-adjusted rate and pitch. Errors are logged
// only; speech is always best-effort.
func (s *Speaker) Speak(ctx context.Context, text, mood string) error {
	if !s.Available() {
		return ErrVoiceDisabled
	}
	if text == "" {
		return nil
	}
	params := VoiceParamsFor(mood)

	var args []string
	switch s.binary {
	case "say":
		args = []string{"-r", strconv.Itoa(params.Rate), text}
	case "espeak-ng", "espeak":
		// espeak pitch is 0-99 centered on 50; scale half-step nudges.
		pitch := 50 + params.Pitch*5
		args = []string{"-s", strconv.Itoa(params.Rate), "-p", strconv.Itoa(pitch), text}
	case "spd-say":
		args = []string{"-r", strconv.Itoa(rateToSPD(params.Rate)), "-p", strconv.Itoa(params.Pitch * 10), "-w", text}
	}

	cmd := exec.CommandContext(ctx, s.binary, args...)
	if err := cmd.Run(); err != nil {
		if s.logger != nil {
			s.logger.Warn("speech synthesis failed", map[string]any{
				"binary": s.binary,
				"error":  fmt.Sprint(err),
			})
		}
		return err
	}
	return nil
}

// rateToSPD maps words-per-minute onto speech-dispatcher's -100..100 scale,
// treating 175 wpm as 0.
func rateToSPD(wpm int) int {
	rate := (wpm - 175) * 2
	if rate > 100 {
		rate = 100
	}
	if rate < -100 {
		rate = -100
	}
	return rate
}
