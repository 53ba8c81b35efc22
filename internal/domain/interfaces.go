package domain

import (
	"context"
	"io"

	"clinicbook/internal/models"
)

// Store is a durable key-value byte store. Get returns (nil, nil) for a missing key;
// Set replaces the value wholesale.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// BookingListener receives the full collection after every persisted mutation.
type BookingListener func(bookings []models.Booking)

type ChangeNotifier interface {
	Subscribe(listener BookingListener) (unsubscribe func())
	Publish(bookings []models.Booking)
}

type BookingRepository interface {
	Create(ctx context.Context, candidate models.Booking) (models.Result, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (models.Result, error)
	Update(ctx context.Context, id string, patch models.BookingPatch) (models.Result, error)
	Delete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) (models.Result, error)
	Stats(ctx context.Context) (models.Stats, error)
	ExportCSV(ctx context.Context) (string, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
	ImportJSON(ctx context.Context, text string, mode models.ImportMode) (models.Result, error)
	Subscribe(listener BookingListener) (unsubscribe func())
}

// Dispatcher delivers booking notifications. Callers invoke it after a successful
// create or a transition to confirmed; the repository never does.
type Dispatcher interface {
	NotifyBooking(ctx context.Context, booking models.Booking) error
	NotifyConfirmation(ctx context.Context, booking models.Booking) error
}

// Authenticator gates administrative operations.
type Authenticator interface {
	AdminExists(ctx context.Context) (bool, error)
	Setup(ctx context.Context, password string) error
	Login(ctx context.Context, password string) (models.Session, error)
	Authenticate(token string) bool
	Logout(token string)
	ChangePassword(ctx context.Context, current, next string) error
}
