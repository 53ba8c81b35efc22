package booking

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"clinicbook/internal/models"
)

// pastTolerance absorbs the delay between filling in a form and validating it.
const pastTolerance = time.Second

var phonePattern = regexp.MustCompile(`^7\d{8}$`)

// Validate checks candidate against the booking rules in order and returns the
// first failure as a validation *Error, or nil. Date and time are read in loc.
func Validate(candidate models.Booking, now time.Time, loc *time.Location) error {
	if err := validate(candidate, now, loc); err != nil {
		return err
	}
	return nil
}

func validate(candidate models.Booking, now time.Time, loc *time.Location) *Error {
	if utf8.RuneCountInString(strings.TrimSpace(candidate.Name)) < 3 {
		return validationError(MsgInvalidName)
	}

	if !phonePattern.MatchString(strings.TrimSpace(candidate.Phone)) {
		return validationError(MsgInvalidPhone)
	}

	if candidate.Date == "" || candidate.Time == "" {
		return validationError(MsgMissingDateTime)
	}

	at, ok := Instant(candidate, loc)
	if !ok {
		return validationError(MsgInvalidDateTime)
	}
	if at.Before(now.Add(-pastTolerance)) {
		return validationError(MsgPastTime)
	}

	if price, ok := candidate.Price.Int(); !ok || price < 0 {
		return validationError(MsgInvalidPrice)
	}

	return nil
}

// Instant combines the booking's date and time into a point in loc.
func Instant(b models.Booking, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	at, err := time.ParseInLocation(models.DateLayout+"T"+models.TimeLayout, b.Date+"T"+b.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
