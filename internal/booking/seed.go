package booking

import (
	"context"
	"time"

	"clinicbook/internal/models"
)

// Seed writes samples when the collection is empty and reports whether it did.
// Samples without an id or createdAt get them assigned; a missing status becomes pending.
func (r *Repository) Seed(ctx context.Context, samples []models.Booking) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bookings, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	if len(bookings) > 0 || len(samples) == 0 {
		return false, nil
	}

	createdAt := r.now().UTC().Format(models.CreatedAtLayout)
	seeded := make([]models.Booking, 0, len(samples))
	for _, s := range samples {
		if s.ID == "" {
			s.ID = r.uniqueID(seeded)
		}
		if s.Status == "" {
			s.Status = models.StatusPending
		}
		if s.CreatedAt == "" {
			s.CreatedAt = createdAt
		}
		s.Price = normalizePrice(s.Price)
		seeded = append(seeded, s)
	}

	if err := r.persist(ctx, seeded); err != nil {
		return false, err
	}

	r.logger.Info().Int("count", len(seeded)).Msg("Sample bookings seeded")
	return true, nil
}

// DefaultSeed returns the demo bookings for the day after now in loc.
func DefaultSeed(now time.Time, loc *time.Location) []models.Booking {
	if loc == nil {
		loc = time.Local
	}
	tomorrow := now.In(loc).AddDate(0, 0, 1).Format(models.DateLayout)
	return []models.Booking{
		{Name: "Ahmed Mohammed", Phone: "712345678", Service: "General consultation", Price: "150", Date: tomorrow, Time: "09:00", Status: models.StatusPending},
		{Name: "Sara Khaled", Phone: "712345679", Service: "Dental check", Price: "200", Date: tomorrow, Time: "10:00", Status: models.StatusConfirmed},
		{Name: "Youssef Ali", Phone: "712345680", Service: "Dermatology and laser", Price: "300", Date: tomorrow, Time: "11:30", Status: models.StatusCompleted},
	}
}
