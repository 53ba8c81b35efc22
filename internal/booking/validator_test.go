package booking

import (
	"testing"
	"time"

	"clinicbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	valid := models.Booking{
		Name:    "Ali Hassan",
		Phone:   "712345678",
		Service: "checkup",
		Price:   "100",
		Date:    "2026-03-10",
		Time:    "09:00",
	}

	tests := []struct {
		name   string
		modify func(b *models.Booking)
		want   string
	}{
		{name: "valid now", modify: func(b *models.Booking) {}},
		{name: "short name", modify: func(b *models.Booking) { b.Name = "  Al  " }, want: MsgInvalidName},
		{name: "three runes", modify: func(b *models.Booking) { b.Name = "علي" }},
		{name: "phone wrong prefix", modify: func(b *models.Booking) { b.Phone = "612345678" }, want: MsgInvalidPhone},
		{name: "phone too long", modify: func(b *models.Booking) { b.Phone = "7123456789" }, want: MsgInvalidPhone},
		{name: "phone padded", modify: func(b *models.Booking) { b.Phone = " 712345678 " }},
		{name: "missing date", modify: func(b *models.Booking) { b.Date = "" }, want: MsgMissingDateTime},
		{name: "missing time", modify: func(b *models.Booking) { b.Time = "" }, want: MsgMissingDateTime},
		{name: "bad date", modify: func(b *models.Booking) { b.Date = "2026-02-30" }, want: MsgInvalidDateTime},
		{name: "bad time", modify: func(b *models.Booking) { b.Time = "25:00" }, want: MsgInvalidDateTime},
		{name: "past", modify: func(b *models.Booking) { b.Time = "08:59" }, want: MsgPastTime},
		{name: "missing price", modify: func(b *models.Booking) { b.Price = "" }, want: MsgInvalidPrice},
		{name: "text price", modify: func(b *models.Booking) { b.Price = "free" }, want: MsgInvalidPrice},
		{name: "negative price", modify: func(b *models.Booking) { b.Price = "-5" }, want: MsgInvalidPrice},
		{name: "leading integer price", modify: func(b *models.Booking) { b.Price = "150 SAR" }},
		{name: "first failure wins", modify: func(b *models.Booking) { b.Name = ""; b.Phone = "" }, want: MsgInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.modify(&b)
			err := Validate(b, now, time.UTC)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidate_Tolerance(t *testing.T) {
	b := models.Booking{Name: "Ali", Phone: "712345678", Price: "1", Date: "2026-03-10", Time: "09:00"}
	slot := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.NoError(t, Validate(b, slot.Add(time.Second), time.UTC))
	assert.Error(t, Validate(b, slot.Add(1001*time.Millisecond), time.UTC))
}

func TestValidate_Location(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	b := models.Booking{Name: "Ali", Phone: "712345678", Price: "1", Date: "2026-03-10", Time: "10:00"}
	// 10:00 at UTC+3 is 07:00 UTC
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	assert.NoError(t, Validate(b, now, time.UTC))
	assert.EqualError(t, Validate(b, now, loc), MsgPastTime)
}
