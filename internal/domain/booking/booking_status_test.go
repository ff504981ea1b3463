package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_Transitions(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		StatusRequested:  {StatusApproved, StatusRejected, StatusCancelled},
		StatusApproved:   {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted},
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBookingStatus_Terminal(t *testing.T) {
	for _, s := range []BookingStatus{StatusRejected, StatusCompleted, StatusCancelled} {
		assert.True(t, s.IsTerminal(), s)
		assert.False(t, s.CanBeCancelled(), s)
	}
	assert.False(t, StatusRequested.IsTerminal())
	assert.True(t, StatusApproved.CanBeRerouted())
	assert.False(t, StatusInProgress.CanBeRerouted())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("in_progress")
	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseBookingStatus("delivered")
	assert.Error(t, err)
}
