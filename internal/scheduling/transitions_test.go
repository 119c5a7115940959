package scheduling

import (
	"testing"

	"github.com/mkaydev/auto-shop/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     models.AppointmentStatus
		to       models.AppointmentStatus
		expected bool
	}{
		{"scheduled to confirmed", models.StatusScheduled, models.StatusConfirmed, true},
		{"scheduled to in-progress walk-in", models.StatusScheduled, models.StatusInProgress, true},
		{"scheduled to cancelled", models.StatusScheduled, models.StatusCancelled, true},
		{"scheduled to no-show", models.StatusScheduled, models.StatusNoShow, true},
		{"scheduled to completed skips work", models.StatusScheduled, models.StatusCompleted, false},
		{"confirmed to in-progress", models.StatusConfirmed, models.StatusInProgress, true},
		{"confirmed to completed skips work", models.StatusConfirmed, models.StatusCompleted, false},
		{"in-progress to completed", models.StatusInProgress, models.StatusCompleted, true},
		{"in-progress to cancelled", models.StatusInProgress, models.StatusCancelled, true},
		{"in-progress to no-show", models.StatusInProgress, models.StatusNoShow, false},
		{"completed is terminal", models.StatusCompleted, models.StatusScheduled, false},
		{"cancelled is terminal", models.StatusCancelled, models.StatusInProgress, false},
		{"no-show is terminal", models.StatusNoShow, models.StatusConfirmed, false},
		{"self transition rejected", models.StatusScheduled, models.StatusScheduled, false},
		{"unknown source", "bogus", models.StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}
