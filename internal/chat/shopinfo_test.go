package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsOpenAt(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		expected bool
	}{
		{"weekday morning", time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC), true},  // Wednesday
		{"weekday before open", time.Date(2026, 9, 2, 7, 59, 0, 0, time.UTC), false},
		{"weekday at open", time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC), true},
		{"weekday at close", time.Date(2026, 9, 2, 18, 0, 0, 0, time.UTC), false},
		{"saturday midday", time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC), true},
		{"saturday early", time.Date(2026, 9, 5, 8, 30, 0, 0, time.UTC), false},
		{"sunday", time.Date(2026, 9, 6, 12, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOpenAt(tt.at))
		})
	}
}

func TestMenuText(t *testing.T) {
	menu := MenuText()
	assert.Contains(t, menu, "Oil Change: $89.99 (45 min)")
	assert.Contains(t, menu, "Battery Replacement: $159.99 (30 min)")
}
