package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))

	// confirmed and cancelled are terminal
	for _, from := range []Status{StatusConfirmed, StatusCancelled} {
		for _, to := range []Status{StatusPending, StatusConfirmed, StatusCancelled} {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(StatusPending, StatusPending))
}

func TestParsePaymentStatus(t *testing.T) {
	for _, s := range []string{"PENDING", "SUCCESSFUL", "FAILED", "CANCELED"} {
		got, err := ParsePaymentStatus(s)
		assert.NoError(t, err)
		assert.Equal(t, PaymentStatus(s), got)
	}
	for _, s := range []string{"", "paid", "successful", "CANCELLED", "REFUNDED"} {
		_, err := ParsePaymentStatus(s)
		assert.ErrorIs(t, err, ErrMalformedWebhook, "input %q", s)
	}
}

func TestPageNormalize(t *testing.T) {
	p := Page{}.Normalize()
	assert.Equal(t, Page{Page: 1, PerPage: 15}, p)

	p = Page{Page: 3, PerPage: 500}.Normalize()
	assert.Equal(t, Page{Page: 3, PerPage: 100}, p)
	assert.Equal(t, 200, p.Offset())
}
