package domain

import (
	"strconv"
	"strings"
	"time"
)

// ─── Round Arithmetic ───────────────────────────────────────────────────────
// All arithmetic is calendar-agnostic elapsed-seconds addition. Round
// boundaries are exactly RoundDuration apart — never month-aware. The rest
// of the chain math assumes fixed-length rounds, so this must not be
// "fixed" to calendar semantics.

// RoundBoundary returns startDate + n*roundDuration.
// Round n spans [RoundBoundary(n-1), RoundBoundary(n)).
func RoundBoundary(start time.Time, roundDuration time.Duration, n int) time.Time {
	return start.Add(time.Duration(n) * roundDuration)
}

// SeasonEnd returns the end of the final round.
func SeasonEnd(start time.Time, roundDuration time.Duration, totalRounds int) time.Time {
	return RoundBoundary(start, roundDuration, totalRounds)
}

// CurrentRoundAt derives the 1-indexed active round at the given instant,
// clamped to [1, totalRounds].
func CurrentRoundAt(start time.Time, roundDuration time.Duration, totalRounds int, now time.Time) int {
	if roundDuration <= 0 || !now.After(start) {
		return 1
	}
	n := int(now.Sub(start)/roundDuration) + 1
	if n > totalRounds {
		return totalRounds
	}
	return n
}

// Remaining decomposes max(boundary-now, 0) into days/hours/minutes/seconds.
// All fields are 0 once the boundary has passed — the terminal window that
// tells the scheduler to advance the round.
func Remaining(boundary, now time.Time) TimeWindow {
	d := boundary.Sub(now)
	if d <= 0 {
		return TimeWindow{}
	}
	secs := int(d / time.Second)
	return TimeWindow{
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}

// ─── Frequency Mapping ──────────────────────────────────────────────────────

// Named cadences in seconds. Monthly is a fixed 31 days, not a calendar
// month; quarterly is three of those.
const (
	FreqWeekly    = 7 * 24 * 3600
	FreqBiWeekly  = 14 * 24 * 3600
	FreqMonthly   = 31 * 24 * 3600
	FreqQuarterly = 3 * FreqMonthly
)

// ParseFrequency maps a cadence to a round duration. The input arrives from
// upstream configuration as either an enum name or a raw seconds value, so
// the mapping is total: unrecognized names fall back to the 31-day default.
func ParseFrequency(s string) time.Duration {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly":
		return FreqWeekly * time.Second
	case "bi-weekly", "biweekly":
		return FreqBiWeekly * time.Second
	case "monthly":
		return FreqMonthly * time.Second
	case "quarterly":
		return FreqQuarterly * time.Second
	}
	if secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return FreqMonthly * time.Second
}
