package booking

import (
	"context"

	"clinicbook/internal/models"
)

// Stats scans the collection. Today is the current date in the repository location;
// revenue sums the leading integer of completed prices, counting anything else as 0.
func (r *Repository) Stats(ctx context.Context) (models.Stats, error) {
	bookings, err := r.load(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return Aggregate(bookings, r.now().In(r.loc).Format(models.DateLayout)), nil
}

func Aggregate(bookings []models.Booking, today string) models.Stats {
	stats := models.Stats{Total: len(bookings)}
	for _, b := range bookings {
		if b.Date == today {
			stats.Today++
		}
		switch b.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusCompleted:
			if v, ok := b.Price.Int(); ok {
				stats.Revenue += v
			}
		}
	}
	return stats
}
