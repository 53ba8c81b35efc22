// Package booking implements the clinic booking repository: validation, slot conflict
// detection, CRUD with a status lifecycle, aggregation, export/import and seeding
// over a single-key persistent store.
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/events"
	"clinicbook/internal/models"
	"clinicbook/internal/store"

	"github.com/rs/zerolog"
)

type Option func(*Repository)

// WithClock overrides the wall clock used for validation, createdAt and stats.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLocation sets the time zone booking dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(r *Repository) { r.loc = loc }
}

func WithIDGenerator(next func() string) Option {
	return func(r *Repository) { r.newID = next }
}

func WithNotifier(n domain.ChangeNotifier) Option {
	return func(r *Repository) { r.notifier = n }
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// Repository owns the booking collection stored under one key. Every mutation is a
// read-modify-write cycle serialized by mu; listeners are notified under the same lock
// and must not call mutating methods.
type Repository struct {
	store    domain.Store
	key      string
	notifier domain.ChangeNotifier
	logger   *zerolog.Logger

	now   func() time.Time
	loc   *time.Location
	newID func() string

	mu sync.Mutex
}

var _ domain.BookingRepository = (*Repository)(nil)

func NewRepository(st domain.Store, key string, opts ...Option) *Repository {
	r := &Repository{
		store: st,
		key:   key,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		nop := zerolog.Nop()
		r.logger = &nop
	}
	if r.notifier == nil {
		r.notifier = events.NewNotifier(r.logger)
	}
	if r.newID == nil {
		r.newID = NewIDGenerator(r.now).Next
	}
	return r
}

func (r *Repository) Subscribe(listener domain.BookingListener) func() {
	return r.notifier.Subscribe(listener)
}

// load reads the collection. A missing key is an empty collection.
func (r *Repository) load(ctx context.Context) ([]models.Booking, error) {
	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	if len(raw) == 0 {
		return []models.Booking{}, nil
	}

	var bookings []models.Booking
	if err := json.Unmarshal(raw, &bookings); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", r.key, store.ErrCorrupt, err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// persist writes the whole collection back and broadcasts it.
func (r *Repository) persist(ctx context.Context, bookings []models.Booking) error {
	if bookings == nil {
		bookings = []models.Booking{}
	}
	raw, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("encode bookings: %w", err)
	}
	if err := r.store.Set(ctx, r.key, raw); err != nil {
		return fmt.Errorf("save bookings: %w", err)
	}
	r.notifier.Publish(bookings)
	return nil
}

// uniqueID draws identifiers until one is not taken in bookings.
func (r *Repository) uniqueID(bookings []models.Booking) string {
	for {
		id := r.newID()
		if indexOf(bookings, id) < 0 {
			return id
		}
		r.logger.Warn().Str("id", id).Msg("Generated booking id collides, regenerating")
	}
}

func (r *Repository) List(ctx context.Context) ([]models.Booking, error) {
	return r.load(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Booking, error) {
	bookings, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(bookings, id)
	if idx < 0 {
		return nil, nil
	}
	b := bookings[idx]
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, candidate models.Booking) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if err := validate(candidate, now, r.loc); err != nil {
		return failed(err), nil
	}

	bookings, err := r.load(ctx)
	if err != nil {
		return Result{}, err
	}

	if FindConflict(bookings, candidate) != nil {
		return failure(models.FailureConflict, MsgSlotBooked), nil
	}

	b := candidate
	b.Extra = nil
	b.ID = r.uniqueID(bookings)
	b.Status = models.StatusPending
	b.CreatedAt = now.UTC().Format(models.CreatedAtLayout)
	b.Price = normalizePrice(b.Price)

	if err := r.persist(ctx, append(bookings, b)); err != nil {
		return Result{}, err
	}

	r.logger.Info().Str("id", b.ID).Str("slot", b.Slot()).Msg("Booking created")
	return success(b), nil
}

// UpdateStatus overwrites the status only. Leaving the cancelled state re-occupies
// the slot, so that transition is checked for conflicts.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.Status) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bookings, err := r.load(ctx)
	if err != nil {
		return Result{}, err
	}

	idx := indexOf(bookings, id)
	if idx < 0 {
		return failure(models.FailureNotFound, MsgNotFound), nil
	}
	if !status.Valid() {
		return failure(models.FailureValidation, MsgInvalidStatus), nil
	}

	current := bookings[idx]
	if current.Status == models.StatusCancelled && status != models.StatusCancelled {
		if FindConflict(without(bookings, idx), current) != nil {
			return failure(models.FailureConflict, MsgUpdateConflict), nil
		}
	}

	bookings[idx].Status = status
	if err := r.persist(ctx, bookings); err != nil {
		return Result{}, err
	}

	r.logger.Info().Str("id", id).Str("from", string(current.Status)).Str("to", string(status)).Msg("Booking status changed")
	res := success(bookings[idx])
	res.PreviousStatus = current.Status
	return res, nil
}

func (r *Repository) Cancel(ctx context.Context, id string) (Result, error) {
	return r.UpdateStatus(ctx, id, models.StatusCancelled)
}

// Update merges patch into the stored booking, re-validates it and checks the slot
// against every other booking. Storage is untouched on failure.
func (r *Repository) Update(ctx context.Context, id string, patch models.BookingPatch) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bookings, err := r.load(ctx)
	if err != nil {
		return Result{}, err
	}

	idx := indexOf(bookings, id)
	if idx < 0 {
		return failure(models.FailureNotFound, MsgNotFound), nil
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return failure(models.FailureValidation, MsgInvalidStatus), nil
	}

	previous := bookings[idx].Status
	merged := patch.Apply(bookings[idx])
	if err := validate(merged, r.now(), r.loc); err != nil {
		return failed(err), nil
	}
	if FindConflict(without(bookings, idx), merged) != nil {
		return failure(models.FailureConflict, MsgUpdateConflict), nil
	}

	merged.Price = normalizePrice(merged.Price)
	bookings[idx] = merged
	if err := r.persist(ctx, bookings); err != nil {
		return Result{}, err
	}

	r.logger.Info().Str("id", id).Msg("Booking updated")
	res := success(merged)
	res.PreviousStatus = previous
	return res, nil
}

// Delete removes the booking if present. It persists and notifies either way.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bookings, err := r.load(ctx)
	if err != nil {
		return err
	}

	kept := bookings[:0]
	for _, b := range bookings {
		if b.ID != id {
			kept = append(kept, b)
		}
	}

	if err := r.persist(ctx, kept); err != nil {
		return err
	}

	r.logger.Info().Str("id", id).Int("removed", len(bookings)-len(kept)).Msg("Booking deleted")
	return nil
}

func normalizePrice(p models.Price) models.Price {
	return models.Price(strings.TrimSpace(string(p)))
}
