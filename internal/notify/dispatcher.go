// Package notify simulates SMS delivery for new and confirmed bookings.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/domain"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
)

type Kind string

const (
	KindBooking      Kind = "booking"
	KindConfirmation Kind = "confirmation"
)

type Message struct {
	Kind      Kind   `json:"kind"`
	BookingID string `json:"booking_id"`
	Phone     string `json:"phone"`
	Text      string `json:"text"`
}

// Delivery is one entry of the delivery log.
type Delivery struct {
	Message
	Attempts int       `json:"attempts"`
	SentAt   time.Time `json:"sent_at"`
	Error    string    `json:"error,omitempty"`
}

// Sender hands a message to a gateway.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender stands in for a real gateway: it waits the configured latency and logs the message.
type LogSender struct {
	logger              *zerolog.Logger
	bookingLatency      time.Duration
	confirmationLatency time.Duration
}

func NewLogSender(cfg config.NotifyConfig, logger *zerolog.Logger) *LogSender {
	return &LogSender{
		logger:              logger,
		bookingLatency:      cfg.BookingLatency,
		confirmationLatency: cfg.ConfirmationLatency,
	}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	latency := s.bookingLatency
	if msg.Kind == KindConfirmation {
		latency = s.confirmationLatency
	}
	if err := sleepCtx(ctx, latency); err != nil {
		return err
	}
	s.logger.Info().
		Str("kind", string(msg.Kind)).
		Str("phone", msg.Phone).
		Str("booking_id", msg.BookingID).
		Msg(msg.Text)
	return nil
}

type DispatcherOption func(*Dispatcher)

// WithObserver registers a callback invoked after every delivery attempt sequence.
func WithObserver(fn func(Delivery)) DispatcherOption {
	return func(d *Dispatcher) { d.observe = fn }
}

func WithLogSize(n int) DispatcherOption {
	return func(d *Dispatcher) { d.size = n }
}

// Dispatcher sends booking notifications with retries and keeps a bounded delivery log.
type Dispatcher struct {
	sender  Sender
	policy  RetryPolicy
	logger  *zerolog.Logger
	observe func(Delivery)
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error

	mu   sync.Mutex
	log  []Delivery
	size int
}

var _ domain.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(sender Sender, policy RetryPolicy, logger *zerolog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		policy: policy,
		logger: logger,
		now:    time.Now,
		sleep:  sleepCtx,
		size:   models.DeliveryLogSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) NotifyBooking(ctx context.Context, b models.Booking) error {
	return d.dispatch(ctx, Message{
		Kind:      KindBooking,
		BookingID: b.ID,
		Phone:     b.Phone,
		Text:      fmt.Sprintf("Booking %s received: %s on %s at %s", b.ID, b.Service, b.Date, b.Time),
	})
}

func (d *Dispatcher) NotifyConfirmation(ctx context.Context, b models.Booking) error {
	return d.dispatch(ctx, Message{
		Kind:      KindConfirmation,
		BookingID: b.ID,
		Phone:     b.Phone,
		Text:      fmt.Sprintf("Booking %s confirmed: %s on %s at %s", b.ID, b.Service, b.Date, b.Time),
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) error {
	attempts, err := d.policy.Do(ctx, d.sleep, func(ctx context.Context) error {
		return d.sender.Send(ctx, msg)
	})

	entry := Delivery{Message: msg, Attempts: attempts, SentAt: d.now()}
	if err != nil {
		entry.Error = err.Error()
		d.logger.Error().Err(err).
			Str("kind", string(msg.Kind)).
			Str("booking_id", msg.BookingID).
			Int("attempts", attempts).
			Msg("Notification delivery failed")
	}

	d.record(entry)
	if d.observe != nil {
		d.observe(entry)
	}

	if err != nil {
		return fmt.Errorf("deliver %s notification for %s: %w", msg.Kind, msg.BookingID, err)
	}
	return nil
}

func (d *Dispatcher) record(entry Delivery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, entry)
	if d.size > 0 && len(d.log) > d.size {
		d.log = append([]Delivery(nil), d.log[len(d.log)-d.size:]...)
	}
}

// Recent returns up to n deliveries, newest first. n <= 0 returns all of them.
func (d *Dispatcher) Recent(n int) []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n <= 0 || n > len(d.log) {
		n = len(d.log)
	}
	out := make([]Delivery, 0, n)
	for i := len(d.log) - 1; i >= len(d.log)-n; i-- {
		out = append(out, d.log[i])
	}
	return out
}
