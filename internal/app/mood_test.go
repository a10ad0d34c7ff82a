package app

import "testing"

func TestNormalizeMood(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"happy", MoodHappy},
		{"sad", MoodSad},
		{"curious", MoodCurious},
		{"supportive", MoodSupportive},
		{"neutral", MoodNeutral},
		{"", MoodNeutral},
		{"ecstatic", MoodNeutral},
		{"HAPPY", MoodNeutral},
	}
	for _, tt := range tests {
		if got := NormalizeMood(tt.in); got != tt.want {
			t.Errorf("NormalizeMood(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVoiceParamsFor(t *testing.T) {
	tests := []struct {
		mood      string
		wantRate  int
		wantPitch int
	}{
		{MoodHappy, 190, 4},
		{MoodSad, 150, -4},
		{MoodCurious, 180, 2},
		{MoodSupportive, 160, -2},
		{MoodNeutral, 175, 0},
		{"garbage", 175, 0},
	}
	for _, tt := range tests {
		got := VoiceParamsFor(tt.mood)
		if got.Rate != tt.wantRate || got.Pitch != tt.wantPitch {
			t.Errorf("VoiceParamsFor(%q) = %+v, want rate=%d pitch=%d", tt.mood, got, tt.wantRate, tt.wantPitch)
		}
	}
}

func TestRateToSPDClamps(t *testing.T) {
	tests := []struct {
		wpm  int
		want int
	}{
		{175, 0},
		{190, 30},
		{150, -50},
		{300, 100},
		{50, -100},
	}
	for _, tt := range tests {
		if got := rateToSPD(tt.wpm); got != tt.want {
			t.Errorf("rateToSPD(%d) = %d, want %d", tt.wpm, got, tt.want)
		}
	}
}
