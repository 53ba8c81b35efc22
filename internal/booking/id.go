package booking

import (
	"encoding/binary"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	idPrefix = "BK"
	// 36^6, the space of the six-character random component
	randomSpace = 2176782336
	randomWidth = 6
)

// IDGenerator produces identifiers of the form BK-<base36 ms>-<6 base36 random>,
// upper-cased. The time component never repeats or goes backwards within a process.
type IDGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	ms := g.tick()

	u := uuid.New()
	r := binary.BigEndian.Uint64(u[8:]) % randomSpace
	random := strconv.FormatUint(r, 36)
	if len(random) < randomWidth {
		random = strings.Repeat("0", randomWidth-len(random)) + random
	}

	return strings.ToUpper(idPrefix + "-" + strconv.FormatInt(ms, 36) + "-" + random)
}

func (g *IDGenerator) tick() int64 {
	for {
		last := g.last.Load()
		ms := g.now().UnixMilli()
		if ms <= last {
			ms = last + 1
		}
		if g.last.CompareAndSwap(last, ms) {
			return ms
		}
	}
}
