package scheduling

import "github.com/mkaydev/auto-shop/internal/models"

// allowedTransitions is the explicit state-machine table. The raw status
// update path enforces it so nonsensical jumps (completed back to scheduled,
// work starting on a cancelled booking) are rejected as state errors.
// Rescheduling is not in this table: it is its own operation that forces a
// reset to scheduled after its own guards.
var allowedTransitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusScheduled: {
		models.StatusConfirmed,
		models.StatusInProgress, // walk-in starts without a confirmation call
		models.StatusCancelled,
		models.StatusNoShow,
	},
	models.StatusConfirmed: {
		models.StatusInProgress,
		models.StatusCancelled,
		models.StatusNoShow,
	},
	models.StatusInProgress: {
		models.StatusCompleted,
		models.StatusCancelled,
	},
	// Terminal states. A cancelled or no-show booking comes back only
	// through rescheduling; completed never changes.
	models.StatusCompleted: {},
	models.StatusCancelled: {},
	models.StatusNoShow:    {},
}

// CanTransition reports whether the state machine permits moving from
// current to next.
func CanTransition(current, next models.AppointmentStatus) bool {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}
