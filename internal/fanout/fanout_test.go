package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	got := Map(context.Background(), items, 0, func(_ context.Context, _ int, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})

	require.Len(t, got, len(items))
	for i, r := range got {
		assert.True(t, r.OK())
		assert.Equal(t, items[i]*10, r.Value)
	}
}

func TestMap_IsolatesFailures(t *testing.T) {
	got := Map(context.Background(), []string{"a", "b", "c"}, 2, func(_ context.Context, i int, s string) (string, error) {
		switch i {
		case 1:
			return "", errors.New("b failed")
		case 2:
			panic("c exploded")
		}
		return s, nil
	})

	assert.Equal(t, "a", got[0].Value)
	assert.EqualError(t, got[1].Err, "b failed")
	require.Error(t, got[2].Err)
	assert.Contains(t, got[2].Err.Error(), "c exploded")
}

func TestMap_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	Map(context.Background(), make([]int, 20), 3, func(_ context.Context, _ int, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestMap_Empty(t *testing.T) {
	got := Map(context.Background(), []int(nil), 0, func(context.Context, int, int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	assert.Empty(t, got)
}
