package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)

	tests := []struct {
		name  string
		now   time.Time
		runAt string
		want  time.Time
	}{
		{
			name:  "later today",
			now:   time.Date(2026, 8, 15, 8, 0, 0, 0, loc),
			runAt: "09:30",
			want:  time.Date(2026, 8, 15, 9, 30, 0, 0, loc),
		},
		{
			name:  "already passed, tomorrow",
			now:   time.Date(2026, 8, 15, 10, 0, 0, 0, loc),
			runAt: "09:30",
			want:  time.Date(2026, 8, 16, 9, 30, 0, 0, loc),
		},
		{
			name:  "exactly at run time rolls to tomorrow",
			now:   time.Date(2026, 8, 15, 9, 30, 0, 0, loc),
			runAt: "09:30",
			want:  time.Date(2026, 8, 16, 9, 30, 0, 0, loc),
		},
		{
			name:  "midnight run",
			now:   time.Date(2026, 8, 15, 23, 59, 0, 0, loc),
			runAt: "00:00",
			want:  time.Date(2026, 8, 16, 0, 0, 0, 0, loc),
		},
		{
			name:  "invalid falls back to midnight",
			now:   time.Date(2026, 8, 15, 10, 0, 0, 0, loc),
			runAt: "bogus",
			want:  time.Date(2026, 8, 16, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextRun(tt.now, tt.runAt)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.True(t, got.After(tt.now), "next run must be strictly after now")
		})
	}
}

func TestLocalMidnight(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)

	// A run firing early in the local morning, east of UTC, must settle
	// against that local day, not the previous UTC day.
	fired := time.Date(2026, 8, 15, 2, 0, 0, 0, loc)
	got := localMidnight(fired)

	assert.True(t, got.Equal(time.Date(2026, 8, 15, 0, 0, 0, 0, loc)), "got %v", got)
	assert.Equal(t, "2026-08-15", got.Format("2006-01-02"))

	t.Run("late evening west of utc", func(t *testing.T) {
		pst := time.FixedZone("PST", -8*3600)
		fired := time.Date(2026, 8, 15, 22, 0, 0, 0, pst)
		got := localMidnight(fired)
		assert.Equal(t, "2026-08-15", got.Format("2006-01-02"))
	})
}
