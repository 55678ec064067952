package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAssigner_ShapeAndTimestamp(t *testing.T) {
	a := NewIDAssigner()
	id, at := a.Assign()

	assert.Regexp(t, IDPattern, id)
	assert.Equal(t, time.UTC, at.Location())

	parsed, err := time.Parse(time.RFC3339Nano, FormatTimestamp(at))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(at.Truncate(time.Millisecond)))
}

func TestIDAssigner_SameMillisecondStillUnique(t *testing.T) {
	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	a := newIDAssignerWithClock(func() time.Time { return fixed })

	id1, _ := a.Assign()
	id2, _ := a.Assign()
	id3, _ := a.Assign()

	base := fixed.UnixMilli()
	assert.Equal(t, "POST-"+strconv.FormatInt(base, 10), id1)
	assert.Equal(t, "POST-"+strconv.FormatInt(base+1, 10), id2)
	assert.Equal(t, "POST-"+strconv.FormatInt(base+2, 10), id3)
}

func TestIDAssigner_ClockGoingBackwards(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 10, 17, 12, 0, 1, 0, time.UTC),
		time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	}
	i := 0
	a := newIDAssignerWithClock(func() time.Time {
		t := times[i]
		i++
		return t
	})

	id1, at1 := a.Assign()
	id2, at2 := a.Assign()

	n1, _ := strconv.ParseInt(strings.TrimPrefix(id1, IDPrefix), 10, 64)
	n2, _ := strconv.ParseInt(strings.TrimPrefix(id2, IDPrefix), 10, 64)
	assert.Greater(t, n2, n1)
	assert.False(t, at2.Before(at1), "timestamp went backwards: %v then %v", at1, at2)
}

func TestIDAssigner_ConcurrentUnique(t *testing.T) {
	a := NewIDAssigner()
	const n = 500

	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := a.Assign()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

func TestIDAssigner_NonDecreasingAcrossCalls(t *testing.T) {
	a := NewIDAssigner()
	var prev string
	for i := 0; i < 100; i++ {
		_, at := a.Assign()
		s := FormatTimestamp(at)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
}

func TestTimestamp_JSON(t *testing.T) {
	ts := Timestamp{time.Date(2026, 10, 17, 9, 5, 3, 120_000_000, time.FixedZone("CLT", -3*3600))}

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-17T12:05:03.120Z"`, string(b))

	var back Timestamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(ts.Time))

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &back))
}
