package model

import (
	"testing"
	"time"
)

func TestContestStatusAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Hour)
	c := &Contest{StartTime: start, EndTime: end}

	cases := []struct {
		name string
		now  time.Time
		want ContestStatus
	}{
		{"before start", start.Add(-time.Minute), ContestNotStarted},
		{"at start", start, ContestRunning},
		{"mid contest", start.Add(2 * time.Hour), ContestRunning},
		{"just before end", end.Add(-time.Second), ContestRunning},
		{"at end", end, ContestEnded},
		{"after end", end.Add(time.Hour), ContestEnded},
	}
	for _, tc := range cases {
		if got := c.StatusAt(tc.now); got != tc.want {
			t.Errorf("%s: StatusAt = %s, want %s", tc.name, got, tc.want)
		}
	}
}
