package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBatcherCoalescesConcurrentSubmits is responsible to test that
// concurrent Submit calls are coalesced into a single submit call
func TestBatcherCoalescesConcurrentSubmits(t *testing.T) {
	var mu sync.Mutex

	var batchSizes []int

	b := NewBatcher[int, int](func(ctx context.Context, items []int) ([]int, error) {
		mu.Lock()
		batchSizes = append(batchSizes, len(items))
		mu.Unlock()

		out := make([]int, len(items))
		for i, v := range items {
			out[i] = v * 2
		}

		return out, nil
	})

	const n = 200

	var wg sync.WaitGroup

	results := make([]int, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			v, err := b.Submit(context.Background(), i)
			results[i] = v
			errs[i] = err
		}(i)
	}

	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, i*2, results[i])
	}

	mu.Lock()
	defer mu.Unlock()

	assert.Less(t, len(batchSizes), n, "concurrent submits should be coalesced into fewer round-trips than callers")

	total := 0
	for _, sz := range batchSizes {
		total += sz
	}

	assert.Equal(t, n, total)
}

// TestBatcherSingleItem is responsible to test that a lone caller still
// gets its result back without waiting for other submissions
func TestBatcherSingleItem(t *testing.T) {
	b := NewBatcher[int, int](func(ctx context.Context, items []int) ([]int, error) {
		out := make([]int, len(items))
		for i, v := range items {
			out[i] = v + 1
		}

		return out, nil
	})

	v, err := b.Submit(context.Background(), 41)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

// TestBatcherPropagatesSubmitError is responsible to test that a failed
// batch round-trip fails every caller in that batch
func TestBatcherPropagatesSubmitError(t *testing.T) {
	boom := assertErr("boom")

	b := NewBatcher[int, int](func(ctx context.Context, items []int) ([]int, error) {
		return nil, boom
	})

	_, err := b.Submit(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

// TestBatcherContextCancelBeforeEnqueue is responsible to test that an
// already-canceled context is never enqueued
func TestBatcherContextCancelBeforeEnqueue(t *testing.T) {
	b := NewBatcher[int, int](func(ctx context.Context, items []int) ([]int, error) {
		out := make([]int, len(items))
		return out, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Submit(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestBatcherMissingResult is responsible to test that a submit func
// returning fewer results than items is reported per caller
func TestBatcherMissingResult(t *testing.T) {
	b := NewBatcher[int, int](func(ctx context.Context, items []int) ([]int, error) {
		return items[:0], nil
	})

	_, err := b.Submit(context.Background(), 7)
	assert.ErrorIs(t, err, ErrResultMissing)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
