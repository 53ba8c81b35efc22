// Package events broadcasts booking collection snapshots to in-process listeners.
package events

import (
	"sync"

	"clinicbook/internal/domain"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

type subscription struct {
	id       uint64
	listener domain.BookingListener
}

// Notifier delivers every published snapshot to all listeners, synchronously and
// in registration order. Each listener gets its own copy of the snapshot.
type Notifier struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	logger *zerolog.Logger
}

func NewNotifier(logger *zerolog.Logger) *Notifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Notifier{logger: logger}
}

// Subscribe registers listener and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (n *Notifier) Subscribe(listener domain.BookingListener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Publish hands bookings to every listener. A panicking listener is logged and skipped.
func (n *Notifier) Publish(bookings []models.Booking) {
	n.mu.RLock()
	subs := append([]subscription(nil), n.subs...)
	n.mu.RUnlock()

	for _, s := range subs {
		n.deliver(s, cloneBookings(bookings))
	}
}

func (n *Notifier) deliver(s subscription, snapshot []models.Booking) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().
				Interface("panic", r).
				Uint64("listener", s.id).
				Int("bookings", len(snapshot)).
				Msg("Booking listener panicked")
		}
	}()
	s.listener(snapshot)
}

func cloneBookings(bookings []models.Booking) []models.Booking {
	out := make([]models.Booking, len(bookings))
	for i, b := range bookings {
		out[i] = b.CloneExtra()
	}
	return out
}
