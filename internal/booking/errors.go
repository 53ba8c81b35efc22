package booking

import "clinicbook/internal/models"

// Result and Error are shared with the transport layer through models.
type (
	Result      = models.Result
	Error       = models.Error
	FailureKind = models.FailureKind
)

var (
	ErrValidation = models.ErrValidation
	ErrConflict   = models.ErrConflict
	ErrNotFound   = models.ErrNotFound
	ErrParse      = models.ErrParse
)

// Сообщения об ожидаемых ошибках
const (
	MsgInvalidName     = "invalid name"
	MsgInvalidPhone    = "invalid phone format"
	MsgMissingDateTime = "missing date/time"
	MsgInvalidDateTime = "invalid date/time"
	MsgPastTime        = "time must be in the future"
	MsgInvalidPrice    = "invalid price"
	MsgInvalidStatus   = "invalid status"
	MsgInvalidMode     = "invalid import mode"
	MsgSlotBooked      = "slot already booked"
	MsgUpdateConflict  = "conflicts with another booking"
	MsgNotFound        = "not found"
	MsgInvalidJSON     = "invalid JSON"
	MsgNotArray        = "payload is not an array"
)

func validationError(msg string) *Error {
	return &Error{Kind: models.FailureValidation, Message: msg}
}

func success(b models.Booking) Result {
	return Result{Success: true, Booking: &b}
}

func failure(kind FailureKind, msg string) Result {
	return Result{Kind: kind, Message: msg}
}

// failed turns an expected *Error into a failed result.
func failed(err *Error) Result {
	return failure(err.Kind, err.Message)
}
