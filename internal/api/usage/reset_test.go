package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextResetTime(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "one minute before local midnight",
			now:  time.Date(2024, 1, 1, 14, 59, 0, 0, time.UTC),
			want: time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "one minute after local midnight",
			now:  time.Date(2024, 1, 1, 15, 1, 0, 0, time.UTC),
			want: time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly local midnight rolls to the next day",
			now:  time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
			want: time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "month and year boundary",
			now:  time.Date(2024, 12, 31, 16, 0, 0, 0, time.UTC),
			want: time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "non utc input",
			now:  time.Date(2024, 3, 10, 8, 0, 0, 0, time.FixedZone("PST", -8*3600)),
			want: time.Date(2024, 3, 11, 15, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextResetTime(tt.now)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestUsageDate(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), UsageDate(time.Date(2024, 1, 1, 14, 59, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), UsageDate(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)))
}
