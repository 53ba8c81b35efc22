package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg Message) error {
	return m.Called(ctx, msg).Error(0)
}

func noSleep(context.Context, time.Duration) error { return nil }

func testBooking() models.Booking {
	return models.Booking{ID: "BK-1", Phone: "712345678", Service: "checkup", Date: "2026-03-11", Time: "09:00"}
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, policy.NextDelay(tt.attempt))
		})
	}

	assert.Equal(t, 100*time.Millisecond, RetryPolicy{}.NextDelay(1))
}

func TestRetryPolicyDo(t *testing.T) {
	ctx := context.Background()

	t.Run("EventualSuccess", func(t *testing.T) {
		calls := 0
		attempts, err := RetryPolicy{MaxRetries: 3}.Do(ctx, noSleep, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("busy")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("Exhausted", func(t *testing.T) {
		attempts, err := RetryPolicy{MaxRetries: 2}.Do(ctx, noSleep, func(context.Context) error {
			return errors.New("down")
		})
		assert.EqualError(t, err, "down")
		assert.Equal(t, 3, attempts)
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		attempts, err := RetryPolicy{MaxRetries: 5, InitialDelay: time.Hour}.Do(cctx, sleepCtx, func(context.Context) error {
			return errors.New("down")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("NotifyBooking", func(t *testing.T) {
		sender := new(mockSender)
		sender.On("Send", ctx, mock.MatchedBy(func(m Message) bool {
			return m.Kind == KindBooking && m.BookingID == "BK-1" && m.Phone == "712345678"
		})).Return(nil).Once()

		var observed []Delivery
		d := NewDispatcher(sender, RetryPolicy{}, &logger, WithObserver(func(del Delivery) { observed = append(observed, del) }))

		require.NoError(t, d.NotifyBooking(ctx, testBooking()))
		sender.AssertExpectations(t)

		require.Len(t, observed, 1)
		assert.Equal(t, 1, observed[0].Attempts)
		assert.Empty(t, observed[0].Error)
	})

	t.Run("RetriesThenFails", func(t *testing.T) {
		sender := new(mockSender)
		sender.On("Send", ctx, mock.Anything).Return(errors.New("gateway down"))

		d := NewDispatcher(sender, RetryPolicy{MaxRetries: 2}, &logger)
		d.sleep = noSleep

		err := d.NotifyConfirmation(ctx, testBooking())
		require.Error(t, err)
		sender.AssertNumberOfCalls(t, "Send", 3)

		recent := d.Recent(1)
		require.Len(t, recent, 1)
		assert.Equal(t, KindConfirmation, recent[0].Kind)
		assert.Equal(t, "gateway down", recent[0].Error)
		assert.Equal(t, 3, recent[0].Attempts)
	})

	t.Run("RecentIsBoundedNewestFirst", func(t *testing.T) {
		sender := new(mockSender)
		sender.On("Send", ctx, mock.Anything).Return(nil)

		d := NewDispatcher(sender, RetryPolicy{}, &logger, WithLogSize(3))
		for i := 0; i < 5; i++ {
			b := testBooking()
			b.ID = fmt.Sprintf("BK-%d", i)
			require.NoError(t, d.NotifyBooking(ctx, b))
		}

		all := d.Recent(0)
		require.Len(t, all, 3)
		assert.Equal(t, "BK-4", all[0].BookingID)
		assert.Equal(t, "BK-2", all[2].BookingID)
		assert.Len(t, d.Recent(2), 2)
	})
}

func TestLogSender(t *testing.T) {
	logger := zerolog.Nop()
	s := NewLogSender(config.NotifyConfig{BookingLatency: time.Millisecond, ConfirmationLatency: time.Millisecond}, &logger)

	assert.NoError(t, s.Send(context.Background(), Message{Kind: KindBooking, Text: "hi"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewLogSender(config.NotifyConfig{BookingLatency: time.Hour}, &logger)
	assert.ErrorIs(t, slow.Send(ctx, Message{Kind: KindBooking}), context.Canceled)
}
