package domain

import (
	"testing"
	"time"
)

// ─── Round Arithmetic Tests ─────────────────────────────────────────────────

func TestRoundBoundary(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	week := 604800 * time.Second

	tests := []struct {
		name string
		n    int
		want time.Time
	}{
		{"zero is the start", 0, start},
		{"first boundary", 1, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"fifth boundary", 5, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundBoundary(start, week, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("RoundBoundary(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestSeasonEnd(t *testing.T) {
	// 5 rounds of 7 days starting 2025-01-01 end on 2025-02-05.
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := SeasonEnd(start, 604800*time.Second, 5)
	want := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("SeasonEnd() = %v, want %v", got, want)
	}
}

func TestCurrentRoundAt(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	week := 604800 * time.Second

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before start", start.Add(-time.Hour), 1},
		{"at start", start, 1},
		{"inside round 1", start.Add(3 * 24 * time.Hour), 1},
		{"day 9 is round 2", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), 2},
		{"exactly on boundary advances", start.Add(7 * 24 * time.Hour), 2},
		{"clamped to total rounds", start.Add(400 * 24 * time.Hour), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CurrentRoundAt(start, week, 5, tt.now)
			if got != tt.want {
				t.Errorf("CurrentRoundAt(%v) = %d, want %d", tt.now, got, tt.want)
			}
		})
	}
}

// ─── Remaining Tests ────────────────────────────────────────────────────────

func TestRemaining(t *testing.T) {
	boundary := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want TimeWindow
	}{
		{
			"full decomposition",
			boundary.Add(-(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second)),
			TimeWindow{Days: 2, Hours: 3, Minutes: 4, Seconds: 5},
		},
		{"one second left", boundary.Add(-time.Second), TimeWindow{Seconds: 1}},
		{"at boundary all zero", boundary, TimeWindow{}},
		{"past boundary clamped to zero", boundary.Add(time.Hour), TimeWindow{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Remaining(boundary, tt.now)
			if got != tt.want {
				t.Errorf("Remaining() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRemaining_MonotonicNonIncreasing(t *testing.T) {
	boundary := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	now := boundary.Add(-48 * time.Hour)

	prev := 1 << 30
	for i := 0; i < 200; i++ {
		w := Remaining(boundary, now)
		if w.Days < 0 || w.Hours < 0 || w.Minutes < 0 || w.Seconds < 0 {
			t.Fatalf("negative component at %v: %+v", now, w)
		}
		total := ((w.Days*24+w.Hours)*60+w.Minutes)*60 + w.Seconds
		if total > prev {
			t.Fatalf("remaining increased at %v: %d > %d", now, total, prev)
		}
		prev = total
		now = now.Add(17 * time.Minute)
	}
}

func TestTimeWindow_IsZero(t *testing.T) {
	if !(TimeWindow{}).IsZero() {
		t.Error("empty window should be zero")
	}
	if (TimeWindow{Seconds: 1}).IsZero() {
		t.Error("non-empty window should not be zero")
	}
}

// ─── Frequency Tests ────────────────────────────────────────────────────────

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"weekly", 604800 * time.Second},
		{"Weekly", 604800 * time.Second},
		{"bi-weekly", 1209600 * time.Second},
		{"biweekly", 1209600 * time.Second},
		{"monthly", 2678400 * time.Second},
		{"quarterly", 8035200 * time.Second},
		{"604800", 604800 * time.Second},
		{" 3600 ", 3600 * time.Second},
		// Unrecognized names silently fall back to 31 days.
		{"fortnightly", 2678400 * time.Second},
		{"", 2678400 * time.Second},
		{"-5", 2678400 * time.Second},
		{"0", 2678400 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFrequency(tt.input)
			if got != tt.want {
				t.Errorf("ParseFrequency(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
