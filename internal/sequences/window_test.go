package sequences

import (
	"testing"
	"time"
)

func baseSettings() Settings {
	return Settings{
		SequenceName:    "calculator_nurture",
		SendWindowStart: 9,
		SendWindowEnd:   17,
		SendTimezone:    "America/New_York",
		DailyLimit:      200,
		SkipWeekends:    true,
	}
}

func TestInSendWindow(t *testing.T) {
	est, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name string
		mod  func(*Settings)
		at   time.Time
		want bool
	}{
		{
			name: "weekday inside window",
			at:   time.Date(2024, 3, 6, 10, 30, 0, 0, est), // Wednesday
			want: true,
		},
		{
			name: "weekday before window",
			at:   time.Date(2024, 3, 6, 8, 59, 0, 0, est),
			want: false,
		},
		{
			name: "window end is exclusive",
			at:   time.Date(2024, 3, 6, 17, 0, 0, 0, est),
			want: false,
		},
		{
			name: "last hour of window",
			at:   time.Date(2024, 3, 6, 16, 59, 0, 0, est),
			want: true,
		},
		{
			name: "saturday skipped",
			at:   time.Date(2024, 3, 9, 11, 0, 0, 0, est),
			want: false,
		},
		{
			name: "saturday allowed when weekends enabled",
			mod:  func(s *Settings) { s.SkipWeekends = false },
			at:   time.Date(2024, 3, 9, 11, 0, 0, 0, est),
			want: true,
		},
		{
			name: "global pause wins",
			mod:  func(s *Settings) { s.Paused = true },
			at:   time.Date(2024, 3, 6, 10, 30, 0, 0, est),
			want: false,
		},
		{
			name: "window evaluated in configured timezone",
			// 10:00 EST is 15:00 UTC; a UTC clock reading must not matter
			at:   time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "bad timezone fails closed",
			mod:  func(s *Settings) { s.SendTimezone = "Not/AZone" },
			at:   time.Date(2024, 3, 6, 10, 30, 0, 0, est),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := baseSettings()
			if tt.mod != nil {
				tt.mod(&settings)
			}
			if got := InSendWindow(settings, tt.at); got != tt.want {
				t.Errorf("InSendWindow(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestDayKeyUsesLocalDay(t *testing.T) {
	settings := baseSettings()
	// 2024-03-07 02:00 UTC is still 2024-03-06 in New York
	at := time.Date(2024, 3, 7, 2, 0, 0, 0, time.UTC)
	key := DayKey(settings, at)
	want := "sends:calculator_nurture:2024-03-06"
	if key != want {
		t.Errorf("DayKey = %q, want %q", key, want)
	}
}

func TestStartOfDay(t *testing.T) {
	settings := baseSettings()
	at := time.Date(2024, 3, 7, 2, 0, 0, 0, time.UTC)
	start := StartOfDay(settings, at)
	if start.Hour() != 0 || start.Day() != 6 {
		t.Errorf("StartOfDay = %v, want local midnight of March 6", start)
	}
	if !start.Before(at) {
		t.Errorf("StartOfDay %v must precede %v", start, at)
	}
}
