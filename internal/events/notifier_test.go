package events

import (
	"testing"

	"clinicbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier(t *testing.T) {
	n := NewNotifier(nil)

	var order []string
	n.Subscribe(func(b []models.Booking) { order = append(order, "first") })
	n.Subscribe(func(b []models.Booking) { order = append(order, "second") })

	n.Publish([]models.Booking{{ID: "BK-1"}})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestNotifierSnapshotIsolation(t *testing.T) {
	n := NewNotifier(nil)
	source := []models.Booking{{ID: "BK-1", Status: models.StatusPending}}

	var second []models.Booking
	n.Subscribe(func(b []models.Booking) { b[0].Status = models.StatusCancelled })
	n.Subscribe(func(b []models.Booking) { second = b })

	n.Publish(source)

	require.Len(t, second, 1)
	assert.Equal(t, models.StatusPending, second[0].Status)
	assert.Equal(t, models.StatusPending, source[0].Status)
}

func TestNotifierPanicRecovered(t *testing.T) {
	n := NewNotifier(nil)

	called := false
	n.Subscribe(func(_ []models.Booking) { panic("listener failure") })
	n.Subscribe(func(_ []models.Booking) { called = true })

	assert.NotPanics(t, func() { n.Publish(nil) })
	assert.True(t, called)
}

func TestNotifierUnsubscribe(t *testing.T) {
	n := NewNotifier(nil)

	var count1, count2 int
	unsub := n.Subscribe(func(_ []models.Booking) { count1++ })
	n.Subscribe(func(_ []models.Booking) { count2++ })
	assert.Equal(t, 2, n.Len())

	unsub()
	unsub()
	assert.Equal(t, 1, n.Len())

	n.Publish(nil)
	assert.Equal(t, 0, count1)
	assert.Equal(t, 1, count2)
}

func TestNotifierNoSubscribers(t *testing.T) {
	n := NewNotifier(nil)
	assert.NotPanics(t, func() { n.Publish([]models.Booking{{ID: "BK-1"}}) })
}
