package booking

import (
	"bytes"
	"context"
	"encoding/json"

	"clinicbook/internal/models"
)

// ImportJSON loads an array of bookings. Records are taken as they are, without
// validation. replace overwrites the collection, merge (and an empty mode) appends.
func (r *Repository) ImportJSON(ctx context.Context, text string, mode models.ImportMode) (Result, error) {
	switch mode {
	case "":
		mode = models.ImportMerge
	case models.ImportReplace, models.ImportMerge:
	default:
		return failure(models.FailureValidation, MsgInvalidMode), nil
	}

	incoming, perr := DecodeArray([]byte(text))
	if perr != nil {
		return failed(perr), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bookings := incoming
	if mode == models.ImportMerge {
		existing, err := r.load(ctx)
		if err != nil {
			return Result{}, err
		}
		bookings = append(existing, incoming...)
	}

	if err := r.persist(ctx, bookings); err != nil {
		return Result{}, err
	}

	r.logger.Info().Str("mode", string(mode)).Int("imported", len(incoming)).Int("total", len(bookings)).Msg("Bookings imported")
	return Result{Success: true}, nil
}

// DecodeArray parses data as a JSON array of booking objects, failing with a parse *Error.
// Field values are not checked: scalars of any JSON type are kept in string form and
// unknown fields are carried in Booking.Extra.
func DecodeArray(data []byte) ([]models.Booking, *Error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, &Error{Kind: models.FailureParse, Message: MsgInvalidJSON}
	}
	if data[0] != '[' {
		return nil, &Error{Kind: models.FailureParse, Message: MsgNotArray}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, &Error{Kind: models.FailureParse, Message: MsgInvalidJSON}
	}

	bookings := make([]models.Booking, 0, len(elems))
	for _, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			return nil, &Error{Kind: models.FailureParse, Message: MsgInvalidJSON}
		}
		var b models.Booking
		if err := json.Unmarshal(elem, &b); err != nil {
			return nil, &Error{Kind: models.FailureParse, Message: MsgInvalidJSON}
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}
