// Package ledger implements the Ledger Batcher (component A) and the
// Resource Accounting layer (component B) on top of it: a fixed universe
// of budget/spent account pairs, transfers with pending/post/void
// semantics, and the domain operations (hold/post/void) the Checkout
// orchestrator drives.
package ledger

import "time"

// TransferFlag marks the semantics of a submitted transfer.
type TransferFlag uint8

const (
	// FlagNone is a plain, immediately-committed transfer.
	FlagNone TransferFlag = iota
	// FlagPending creates a hold that expires after Timeout.
	FlagPending
	// FlagPostPending resolves the hold identified by PendingID into a
	// committed transfer.
	FlagPostPending
	// FlagVoidPending cancels the hold identified by PendingID, returning
	// its units to the budget account.
	FlagVoidPending
)

// AccountFlag marks account-level invariants enforced by the ledger.
type AccountFlag uint8

const (
	// FlagCreditsMustNotExceedDebits enforces a non-negative balance: the
	// account can never be debited below zero. Set on every budget
	// account so a hold or post can never oversell.
	FlagCreditsMustNotExceedDebits AccountFlag = 1 << iota
)

// Account is a single ledger account: a balance partitioned by Ledger and
// identified by Code.
type Account struct {
	ID           [16]byte
	Ledger       uint32
	Code         uint16
	Flags        AccountFlag
	DebitsTotal  int64
	CreditsTotal int64
}

// DebitsPending and CreditsPending are tracked separately from posted
// totals so conservation (§8.1) can be checked without replaying history.
type accountState struct {
	Account
	DebitsPending  int64
	CreditsPending int64
}

// Balance is the balance of an account at the moment it was read.
type Balance struct {
	ID              [16]byte
	DebitsPosted    int64
	CreditsPosted   int64
	DebitsPending   int64
	CreditsPending  int64
}

// AvailableCredits returns the credit headroom that has not yet been
// debited or held, i.e. what a budget account can still fund.
func (b Balance) AvailableCredits() int64 {
	return b.CreditsPosted - b.DebitsPosted - b.DebitsPending
}

// Transfer moves Amount units from DebitAccountID to CreditAccountID.
type Transfer struct {
	ID              [16]byte
	DebitAccountID  [16]byte
	CreditAccountID [16]byte
	Amount          int64
	Ledger          uint32
	Code            uint16
	Flags           TransferFlag
	Timeout         time.Duration
	PendingID       [16]byte
	Timestamp       time.Time
}

// ResultCode reports the per-item outcome of a batched submission.
type ResultCode uint8

const (
	// ResultOK means the item was applied.
	ResultOK ResultCode = iota
	// ResultExists means an account or transfer with this id already
	// exists (idempotent replay); treated as success by every caller in
	// this core.
	ResultExists
	// ResultExceedsCredits means a debit would drive a
	// credits-must-not-exceed-debits account negative — sold out.
	ResultExceedsCredits
	// ResultPendingNotFound means a post referenced a PendingID with no
	// hold on record, or a transfer named a debit or credit account that
	// does not exist.
	ResultPendingNotFound
	// ResultPendingExpired means a post referenced a hold that already
	// expired and was auto-released, or was voided.
	ResultPendingExpired
	// ResultPendingAlreadyResolved means a post referenced a hold that
	// was already posted.
	ResultPendingAlreadyResolved
)

// CreateAccountsResult is the per-item result of CreateAccounts.
type CreateAccountsResult struct {
	ID     [16]byte
	Result ResultCode
}

// CreateTransfersResult is the per-item result of CreateTransfers.
type CreateTransfersResult struct {
	ID     [16]byte
	Result ResultCode
}

// AccountLookup is the per-id result of LookupAccounts: Found is false
// when no such account exists, so callers can match results to queries
// by position even across absent ids.
type AccountLookup struct {
	ID      [16]byte
	Balance Balance
	Found   bool
}

// TransferLookup is the per-id result of LookupTransfers.
type TransferLookup struct {
	ID       [16]byte
	Transfer Transfer
	Found    bool
}
