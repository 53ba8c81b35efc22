package booking

import "clinicbook/internal/models"

// FindConflict returns the first booking in existing that occupies the candidate's
// slot and is not cancelled, or nil.
func FindConflict(existing []models.Booking, candidate models.Booking) *models.Booking {
	for i := range existing {
		b := existing[i]
		if b.Status == models.StatusCancelled {
			continue
		}
		if b.Date == candidate.Date && b.Time == candidate.Time && b.Service == candidate.Service {
			return &b
		}
	}
	return nil
}

// without returns bookings minus the element at idx, leaving the input untouched.
func without(bookings []models.Booking, idx int) []models.Booking {
	out := make([]models.Booking, 0, len(bookings)-1)
	out = append(out, bookings[:idx]...)
	return append(out, bookings[idx+1:]...)
}

func indexOf(bookings []models.Booking, id string) int {
	for i := range bookings {
		if bookings[i].ID == id {
			return i
		}
	}
	return -1
}
