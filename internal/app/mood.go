package app

// The backend classifies messages into a small fixed set of mood tags.
const (
	MoodHappy      = "happy"
	MoodSad        = "sad"
	MoodCurious    = "curious"
	MoodSupportive = "supportive"
	MoodNeutral    = "neutral"
)

// NormalizeMood maps unknown or empty tags to neutral so downstream state
// never carries arbitrary strings.
func NormalizeMood(mood string) string {
	switch mood {
	case MoodHappy, MoodSad, MoodCurious, MoodSupportive, MoodNeutral:
		return mood
	default:
		return MoodNeutral
	}
}

// VoiceParams are per-mood nudges applied to speech output. Rate is words
// per minute, pitch is a synthesizer-relative adjustment in half-steps.
type VoiceParams struct {
	Rate  int
	Pitch int
}

// VoiceParamsFor returns the vocal adjustment for a mood category.
func VoiceParamsFor(mood string) VoiceParams {
	switch NormalizeMood(mood) {
	case MoodHappy:
		return VoiceParams{Rate: 190, Pitch: 4}
	case MoodSad:
		return VoiceParams{Rate: 150, Pitch: -4}
	case MoodCurious:
		return VoiceParams{Rate: 180, Pitch: 2}
	case MoodSupportive:
		return VoiceParams{Rate: 160, Pitch: -2}
	default:
		return VoiceParams{Rate: 175, Pitch: 0}
	}
}
