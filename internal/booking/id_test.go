package booking

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^BK-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestIDGenerator_Format(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	g := NewIDGenerator(func() time.Time { return now })

	id := g.Next()
	assert.Regexp(t, idPattern, id)

	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	ms, err := strconv.ParseInt(strings.ToLower(parts[1]), 36, 64)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ms)
}

func TestIDGenerator_Monotonic(t *testing.T) {
	clock := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	g := NewIDGenerator(func() time.Time { return clock })

	var prev int64
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		if i == 50 {
			// clock steps backwards
			clock = clock.Add(-time.Hour)
		}
		id := g.Next()
		require.False(t, seen[id])
		seen[id] = true

		ms, err := strconv.ParseInt(strings.ToLower(strings.Split(id, "-")[1]), 36, 64)
		require.NoError(t, err)
		assert.Greater(t, ms, prev)
		prev = ms
	}
}
