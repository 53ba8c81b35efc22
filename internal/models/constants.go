package models

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ImportMode selects how an imported array is combined with the stored collection.
type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportMerge   ImportMode = "merge"
)

const (
	// DateLayout формат поля date
	DateLayout = "2006-01-02"

	// TimeLayout формат поля time
	TimeLayout = "15:04"

	// CreatedAtLayout формат поля createdAt
	CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

	// DefaultBookingsKey ключ коллекции бронирований в хранилище
	DefaultBookingsKey = "clinic_bookings_db_v2"

	// DefaultAdminKey ключ учётной записи администратора в хранилище
	DefaultAdminKey = "clinic_admin"

	// DefaultSessionTTL время жизни сессии администратора в секундах
	DefaultSessionTTL = 60 * 60

	// MinPasswordLength минимальная длина пароля администратора
	MinPasswordLength = 6

	// RateLimitRPS запросов в секунду на клиента по умолчанию
	RateLimitRPS = 5

	// RateLimitBurst размер всплеска по умолчанию
	RateLimitBurst = 10

	// DeliveryLogSize размер журнала доставленных уведомлений
	DeliveryLogSize = 100
)
