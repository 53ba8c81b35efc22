package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Booking is a single appointment record as it is persisted in the store.
type Booking struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Service   string `json:"service"`
	Price     Price  `json:"price"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    Status `json:"status"`
	CreatedAt string `json:"createdAt"`

	// Extra keeps fields outside the known set so imported records round-trip.
	Extra map[string]json.RawMessage `json:"-"`
}

var bookingFields = map[string]struct{}{
	"id": {}, "name": {}, "phone": {}, "service": {}, "price": {},
	"date": {}, "time": {}, "status": {}, "createdAt": {},
}

// UnmarshalJSON decodes a booking object leniently: scalar values of any JSON type
// are taken in their string form, and unknown fields land in Extra.
func (b *Booking) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Booking
	for k, v := range raw {
		if _, known := bookingFields[k]; !known {
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			out.Extra[k] = append(json.RawMessage(nil), v...)
			continue
		}

		s, err := scalarString(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		switch k {
		case "id":
			out.ID = s
		case "name":
			out.Name = s
		case "phone":
			out.Phone = s
		case "service":
			out.Service = s
		case "price":
			out.Price = Price(s)
		case "date":
			out.Date = s
		case "time":
			out.Time = s
		case "status":
			out.Status = Status(s)
		case "createdAt":
			out.CreatedAt = s
		}
	}

	*b = out
	return nil
}

// MarshalJSON writes the known fields in declaration order followed by Extra sorted by key.
func (b Booking) MarshalJSON() ([]byte, error) {
	type plain Booking
	base, err := json.Marshal(plain(b))
	if err != nil || len(b.Extra) == 0 {
		return base, err
	}

	keys := make([]string, 0, len(b.Extra))
	for k := range b.Extra {
		if _, known := bookingFields[k]; !known {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, k := range keys {
		name, _ := json.Marshal(k)
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		if err := json.Compact(&buf, b.Extra[k]); err != nil {
			return nil, fmt.Errorf("extra field %s: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CloneExtra returns a copy of b whose Extra map is not shared with b.
func (b Booking) CloneExtra() Booking {
	if b.Extra == nil {
		return b
	}
	extra := make(map[string]json.RawMessage, len(b.Extra))
	for k, v := range b.Extra {
		extra[k] = append(json.RawMessage(nil), v...)
	}
	b.Extra = extra
	return b
}

// scalarString renders a JSON value as the string a text field would hold:
// strings unquoted, null empty, numbers and booleans literally, anything else compacted.
func scalarString(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
		return "", nil
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	case v[0] == '{' || v[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return string(v), nil
	}
}

// Slot is the (date, time, service) triple that conflict detection treats as exclusive.
func (b Booking) Slot() string {
	return b.Date + " " + b.Time + " " + b.Service
}

// BookingPatch holds the fields an update may overwrite. Nil fields are kept.
type BookingPatch struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Service *string `json:"service,omitempty"`
	Price   *Price  `json:"price,omitempty"`
	Date    *string `json:"date,omitempty"`
	Time    *string `json:"time,omitempty"`
	Status  *Status `json:"status,omitempty"`
}

// Apply returns a copy of b overlaid by the non-nil patch fields.
func (p BookingPatch) Apply(b Booking) Booking {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Phone != nil {
		b.Phone = *p.Phone
	}
	if p.Service != nil {
		b.Service = *p.Service
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.Time != nil {
		b.Time = *p.Time
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	return b
}

// Price is a non-negative integer amount kept in string form.
// It decodes from either a JSON string or a JSON number and always encodes as a string.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price must be a string or a number: %w", err)
	}
	*p = Price(n.String())
	return nil
}

// Int parses the leading integer of the price the way a lenient form field would.
// ok is false when no digits lead the value.
func (p Price) Int() (value int64, ok bool) {
	s := string(p)
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, false
	}
	v, err := strconv.ParseInt(s[start:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Stats aggregates the booking collection.
type Stats struct {
	Total   int   `json:"total"`
	Today   int   `json:"today"`
	Pending int   `json:"pending"`
	Revenue int64 `json:"revenue"`
}
