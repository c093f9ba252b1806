package ledger

import (
	"context"
	"sync"
	"time"
)

// MemoryClient is an in-process simulator of the ledger's wire protocol:
// accounts, transfers, and the pending/post/void hold mechanics, enforcing
// the same non-negative-balance invariant a real ledger service would.
// It stands in for the external ledger the Batcher was designed to front —
// no off-the-shelf Go driver for that ledger exists, the same way the
// mock payment provider stands in for a real payment processor.
type MemoryClient struct {
	mu        sync.Mutex
	accounts  map[[16]byte]*accountState
	transfers map[[16]byte]Transfer
	holds     map[[16]byte]*pendingHold

	stopCh chan struct{}
	closed bool
}

type pendingHold struct {
	transferID [16]byte
	debit      [16]byte
	credit     [16]byte
	amount     int64
	ledger     uint32
	code       uint16
	expiresAt  time.Time
	resolved   bool
	voided     bool
}

// NewMemoryClient builds an empty simulator and starts its background
// hold-expiry sweeper.
func NewMemoryClient() *MemoryClient {
	c := &MemoryClient{
		accounts:  make(map[[16]byte]*accountState),
		transfers: make(map[[16]byte]Transfer),
		holds:     make(map[[16]byte]*pendingHold),
		stopCh:    make(chan struct{}),
	}

	go c.sweepLoop()

	return c
}

// Close stops the background sweeper.
func (c *MemoryClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.closed = true
	c.mu.Unlock()

	close(c.stopCh)
}

func (c *MemoryClient) sweepLoop() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.expireLocked(time.Now())
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// expireLocked releases the budget held by every pending transfer whose
// timeout has passed. Caller must hold c.mu.
func (c *MemoryClient) expireLocked(now time.Time) {
	for id, h := range c.holds {
		if h.resolved || h.voided {
			continue
		}

		if now.Before(h.expiresAt) {
			continue
		}

		debit := c.accounts[h.debit]
		credit := c.accounts[h.credit]

		if debit != nil {
			debit.DebitsPending -= h.amount
		}

		if credit != nil {
			credit.CreditsPending -= h.amount
		}

		h.voided = true
		_ = id
	}
}

// CreateAccounts idempotently creates accounts; an account id that
// already exists returns ResultExists without modifying it.
func (c *MemoryClient) CreateAccounts(ctx context.Context, accounts []Account) ([]CreateAccountsResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]CreateAccountsResult, len(accounts))

	for i, a := range accounts {
		if _, ok := c.accounts[a.ID]; ok {
			results[i] = CreateAccountsResult{ID: a.ID, Result: ResultExists}
			continue
		}

		c.accounts[a.ID] = &accountState{Account: a}
		results[i] = CreateAccountsResult{ID: a.ID, Result: ResultOK}
	}

	return results, nil
}

// CreateTransfers applies each transfer in order, enforcing the
// non-negative-balance invariant on FlagCreditsMustNotExceedDebits
// accounts and the pending/post/void state machine.
func (c *MemoryClient) CreateTransfers(ctx context.Context, transfers []Transfer) ([]CreateTransfersResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked(time.Now())

	results := make([]CreateTransfersResult, len(transfers))

	for i, t := range transfers {
		results[i] = c.applyTransferLocked(t)
	}

	return results, nil
}

func (c *MemoryClient) applyTransferLocked(t Transfer) CreateTransfersResult {
	if _, ok := c.transfers[t.ID]; ok {
		return CreateTransfersResult{ID: t.ID, Result: ResultExists}
	}

	switch t.Flags {
	case FlagPostPending:
		return c.postPendingLocked(t)
	case FlagVoidPending:
		return c.voidPendingLocked(t)
	default:
		return c.createDirectLocked(t)
	}
}

// createDirectLocked handles FlagNone (immediate) and FlagPending.
func (c *MemoryClient) createDirectLocked(t Transfer) CreateTransfersResult {
	debit := c.accounts[t.DebitAccountID]
	credit := c.accounts[t.CreditAccountID]

	if debit == nil || credit == nil {
		return CreateTransfersResult{ID: t.ID, Result: ResultPendingNotFound}
	}

	if debit.Flags&FlagCreditsMustNotExceedDebits != 0 {
		projected := debit.DebitsTotal + debit.DebitsPending + t.Amount
		if projected > debit.CreditsTotal {
			return CreateTransfersResult{ID: t.ID, Result: ResultExceedsCredits}
		}
	}

	if t.Flags == FlagPending {
		debit.DebitsPending += t.Amount
		credit.CreditsPending += t.Amount

		expiresAt := time.Now().Add(t.Timeout)
		if t.Timeout <= 0 {
			expiresAt = time.Now().Add(24 * time.Hour)
		}

		c.holds[t.ID] = &pendingHold{
			transferID: t.ID,
			debit:      t.DebitAccountID,
			credit:     t.CreditAccountID,
			amount:     t.Amount,
			ledger:     t.Ledger,
			code:       t.Code,
			expiresAt:  expiresAt,
		}
	} else {
		debit.DebitsTotal += t.Amount
		credit.CreditsTotal += t.Amount
	}

	c.transfers[t.ID] = t

	return CreateTransfersResult{ID: t.ID, Result: ResultOK}
}

func (c *MemoryClient) postPendingLocked(t Transfer) CreateTransfersResult {
	hold, ok := c.holds[t.PendingID]
	if !ok {
		return CreateTransfersResult{ID: t.ID, Result: ResultPendingNotFound}
	}

	if hold.resolved {
		return CreateTransfersResult{ID: t.ID, Result: ResultPendingAlreadyResolved}
	}

	if hold.voided {
		return CreateTransfersResult{ID: t.ID, Result: ResultPendingExpired}
	}

	debit := c.accounts[hold.debit]
	credit := c.accounts[hold.credit]

	debit.DebitsPending -= hold.amount
	credit.CreditsPending -= hold.amount
	debit.DebitsTotal += hold.amount
	credit.CreditsTotal += hold.amount

	hold.resolved = true
	c.transfers[t.ID] = t

	return CreateTransfersResult{ID: t.ID, Result: ResultOK}
}

func (c *MemoryClient) voidPendingLocked(t Transfer) CreateTransfersResult {
	hold, ok := c.holds[t.PendingID]
	if !ok {
		// No hold was ever accepted under this id (expired holds stay on
		// record, marked voided) — void is idempotent either way.
		c.transfers[t.ID] = t
		return CreateTransfersResult{ID: t.ID, Result: ResultOK}
	}

	if hold.resolved || hold.voided {
		c.transfers[t.ID] = t
		return CreateTransfersResult{ID: t.ID, Result: ResultOK}
	}

	debit := c.accounts[hold.debit]
	credit := c.accounts[hold.credit]

	debit.DebitsPending -= hold.amount
	credit.CreditsPending -= hold.amount

	hold.voided = true
	c.transfers[t.ID] = t

	return CreateTransfersResult{ID: t.ID, Result: ResultOK}
}

// LookupAccounts returns, for each id in order, its balance snapshot or
// Found=false if no such account exists.
func (c *MemoryClient) LookupAccounts(ctx context.Context, ids [][16]byte) ([]AccountLookup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked(time.Now())

	out := make([]AccountLookup, len(ids))

	for i, id := range ids {
		a, ok := c.accounts[id]
		if !ok {
			out[i] = AccountLookup{ID: id}
			continue
		}

		out[i] = AccountLookup{
			ID: id,
			Balance: Balance{
				ID:             id,
				DebitsPosted:   a.DebitsTotal,
				CreditsPosted:  a.CreditsTotal,
				DebitsPending:  a.DebitsPending,
				CreditsPending: a.CreditsPending,
			},
			Found: true,
		}
	}

	return out, nil
}

// LookupTransfers returns, for each id in order, the recorded transfer or
// Found=false if no such transfer exists.
func (c *MemoryClient) LookupTransfers(ctx context.Context, ids [][16]byte) ([]TransferLookup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]TransferLookup, len(ids))

	for i, id := range ids {
		t, ok := c.transfers[id]
		out[i] = TransferLookup{ID: id, Transfer: t, Found: ok}
	}

	return out, nil
}

// GetAccountBalances returns a single-entry balance history (the
// simulator does not retain historical snapshots beyond the current one).
func (c *MemoryClient) GetAccountBalances(ctx context.Context, id [16]byte, limit int) ([]Balance, error) {
	lookups, err := c.LookupAccounts(ctx, [][16]byte{id})
	if err != nil {
		return nil, err
	}

	if len(lookups) == 0 || !lookups[0].Found {
		return nil, nil
	}

	return []Balance{lookups[0].Balance}, nil
}
