package ledger

import (
	"context"
	"time"
)

// MaxBatch bounds how many items a single ledger submission may carry,
// matching the wire protocol's own per-message limit.
const MaxBatch = 8189

// MaxWait is how long the worker waits after the first item in a batch
// arrives before submitting a partial batch, short enough that no single
// caller notices the coalescing.
const MaxWait = 200 * time.Microsecond

// SubmitFunc performs one round-trip against the underlying ledger
// client for a drained batch of items.
type SubmitFunc[In, Out any] func(ctx context.Context, items []In) ([]Out, error)

type request[In, Out any] struct {
	ctx   context.Context
	item  In
	reply chan reply[Out]
}

type reply[Out any] struct {
	value Out
	err   error
}

// Batcher coalesces concurrent callers submitting items of type In into
// batched round-trips through a single submit func, fanning the per-item
// results of type Out back to each caller via a one-shot reply channel.
//
// One Batcher is created per ledger operation kind (create_accounts,
// create_transfers, lookup_accounts, lookup_transfers,
// get_account_balances); each owns a single worker goroutine, so
// submissions on distinct operation kinds never block one another.
type Batcher[In, Out any] struct {
	submit SubmitFunc[In, Out]
	queue  chan request[In, Out]
}

// NewBatcher starts the worker goroutine and returns a ready Batcher.
func NewBatcher[In, Out any](submit SubmitFunc[In, Out]) *Batcher[In, Out] {
	b := &Batcher[In, Out]{
		submit: submit,
		queue:  make(chan request[In, Out], MaxBatch),
	}

	go b.run()

	return b
}

// Submit enqueues a single item and blocks until its batch has been
// acknowledged by the ledger, returning that item's individual result.
func (b *Batcher[In, Out]) Submit(ctx context.Context, item In) (Out, error) {
	if err := ctx.Err(); err != nil {
		var zero Out
		return zero, err
	}

	req := request[In, Out]{ctx: ctx, item: item, reply: make(chan reply[Out], 1)}

	select {
	case b.queue <- req:
	case <-ctx.Done():
		var zero Out
		return zero, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.value, r.err
	case <-ctx.Done():
		var zero Out
		return zero, ctx.Err()
	}
}

// run is the single worker loop: await at least one item, drain up to
// MaxBatch more without blocking or until MaxWait has elapsed since the
// first item, submit, then fan results back by position.
func (b *Batcher[In, Out]) run() {
	for first := range b.queue {
		batch := []request[In, Out]{first}

		deadline := time.NewTimer(MaxWait)

	drain:
		for len(batch) < MaxBatch {
			select {
			case req, ok := <-b.queue:
				if !ok {
					break drain
				}

				batch = append(batch, req)
			case <-deadline.C:
				break drain
			}
		}

		deadline.Stop()

		b.submitBatch(batch)
	}
}

func (b *Batcher[In, Out]) submitBatch(batch []request[In, Out]) {
	items := make([]In, len(batch))
	for i, req := range batch {
		items[i] = req.item
	}

	// A single caller's context is used only as the submission deadline;
	// distinct callers' contexts are not individually honored mid-flight
	// since the batch is already in the ledger client's hands.
	ctx := batch[0].ctx

	results, err := b.submit(ctx, items)
	if err != nil {
		for _, req := range batch {
			req.reply <- reply[Out]{err: err}
		}

		return
	}

	for i, req := range batch {
		if i < len(results) {
			req.reply <- reply[Out]{value: results[i]}
		} else {
			var zero Out
			req.reply <- reply[Out]{value: zero, err: ErrResultMissing}
		}
	}
}
