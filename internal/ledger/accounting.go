package ledger

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Supply is the fixed capacity configured for each scarce resource pair
// at process start.
type Supply struct {
	TicketsA int64
	TicketsB int64
	Goodies  int64
}

// ResourceAccounting maps ticket/goodie/restart-counter domain concepts
// onto ledger account pairs and expresses hold/post/void as transfer
// primitives submitted through a BatchedClient.
type ResourceAccounting struct {
	client *BatchedClient
}

// NewResourceAccounting builds a ResourceAccounting over an already
// batcher-wrapped ledger client.
func NewResourceAccounting(client *BatchedClient) *ResourceAccounting {
	return &ResourceAccounting{client: client}
}

func deriveFundingTransferID(code uint16) [16]byte {
	h := sha256.New()
	h.Write([]byte("fund"))
	h.Write([]byte{byte(code >> 8), byte(code)})

	sum := h.Sum(nil)

	var id [16]byte
	copy(id[:], sum[:16])

	return id
}

// InitializeSupply idempotently creates the fixed account set — ticket
// and goodie budget accounts carry FlagCreditsMustNotExceedDebits — then
// funds each budget account whose supply is positive with a single
// immediate transfer of that supply from a synthetic operator account
// (the restart-counter budget carries no flag and is never funded). Safe to call on every process start:
// duplicate account and transfer ids are absorbed by the ledger.
func (ra *ResourceAccounting) InitializeSupply(ctx context.Context, supply Supply) error {
	pairs := []struct {
		budget, spent   uint16
		total           int64
		enforceNonNeg   bool
	}{
		{CodeClassATicketsBudget, CodeClassATicketsSpent, supply.TicketsA, true},
		{CodeClassBTicketsBudget, CodeClassBTicketsSpent, supply.TicketsB, true},
		{CodeGoodiesBudget, CodeGoodiesSpent, supply.Goodies, true},
		{CodeRestartBudget, CodeRestartSpent, 0, false},
	}

	if _, err := ra.client.CreateAccount(ctx, Account{ID: AccountID(Ledger, CodeOperator), Ledger: Ledger, Code: CodeOperator}); err != nil {
		return fmt.Errorf("create operator account: %w", err)
	}

	for _, p := range pairs {
		budgetID := AccountID(Ledger, p.budget)

		var flags AccountFlag
		if p.enforceNonNeg {
			flags = FlagCreditsMustNotExceedDebits
		}

		if _, err := ra.client.CreateAccount(ctx, Account{
			ID: budgetID, Ledger: Ledger, Code: p.budget,
			Flags: flags,
		}); err != nil {
			return fmt.Errorf("create budget account %d: %w", p.budget, err)
		}

		if _, err := ra.client.CreateAccount(ctx, Account{ID: AccountID(Ledger, p.spent), Ledger: Ledger, Code: p.spent}); err != nil {
			return fmt.Errorf("create spent account %d: %w", p.spent, err)
		}

		if p.total <= 0 {
			continue
		}

		fundResult, err := ra.client.CreateTransfer(ctx, Transfer{
			ID:              deriveFundingTransferID(p.budget),
			DebitAccountID:  AccountID(Ledger, CodeOperator),
			CreditAccountID: budgetID,
			Amount:          p.total,
			Ledger:          Ledger,
			Code:            p.budget,
			Flags:           FlagNone,
			Timestamp:       time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("fund budget account %d: %w", p.budget, err)
		}

		if fundResult.Result != ResultOK && fundResult.Result != ResultExists {
			return fmt.Errorf("fund budget account %d: unexpected result %v", p.budget, fundResult.Result)
		}
	}

	return nil
}

// HoldResult is the outcome of a Hold call.
type HoldResult struct {
	TicketOK        bool
	GoodieOK        bool
	TicketPendingID [16]byte
	GoodiePendingID *[16]byte
}

// Hold places up to two PENDING transfers (ticket, optional goodie)
// against the budget accounts for class, using ids derived from orderID
// so a retried hold call is idempotent.
func (ra *ResourceAccounting) Hold(ctx context.Context, orderID [16]byte, class TicketClass, wantGoodie bool, timeout time.Duration) (HoldResult, error) {
	budgetCode, spentCode := budgetSpentPair(class)

	ticketID := DeriveTransferID(orderID, KindTicketHold)

	ticketResult, err := ra.client.CreateTransfer(ctx, Transfer{
		ID:              ticketID,
		DebitAccountID:  AccountID(Ledger, budgetCode),
		CreditAccountID: AccountID(Ledger, spentCode),
		Amount:          1,
		Ledger:          Ledger,
		Code:            budgetCode,
		Flags:           FlagPending,
		Timeout:         timeout,
		Timestamp:       time.Now().UTC(),
	})
	if err != nil {
		return HoldResult{}, fmt.Errorf("hold ticket: %w", err)
	}

	result := HoldResult{TicketPendingID: ticketID}

	if ticketResult.Result == ResultExceedsCredits {
		return result, nil
	}

	result.TicketOK = true

	if !wantGoodie {
		return result, nil
	}

	goodieID := DeriveTransferID(orderID, KindGoodieHold)

	goodieResult, err := ra.client.CreateTransfer(ctx, Transfer{
		ID:              goodieID,
		DebitAccountID:  AccountID(Ledger, CodeGoodiesBudget),
		CreditAccountID: AccountID(Ledger, CodeGoodiesSpent),
		Amount:          1,
		Ledger:          Ledger,
		Code:            CodeGoodiesBudget,
		Flags:           FlagPending,
		Timeout:         timeout,
		Timestamp:       time.Now().UTC(),
	})
	if err != nil {
		return result, fmt.Errorf("hold goodie: %w", err)
	}

	if goodieResult.Result == ResultOK || goodieResult.Result == ResultExists {
		result.GoodieOK = true
		result.GoodiePendingID = &goodieID
	}

	return result, nil
}

// PostResult is the outcome of a Post call.
type PostResult struct {
	TicketPosted bool
	GoodiePosted bool
}

// Post resolves the ticket and optional goodie holds to committed
// transfers. An expired ticket pending is automatically retried as an
// immediate transfer; if that still fails, TicketPosted is false and the
// caller (the Checkout orchestrator) marks the order PAID_UNFULFILLED.
func (ra *ResourceAccounting) Post(ctx context.Context, orderID [16]byte, class TicketClass, ticketPendingID [16]byte, goodiePendingID *[16]byte) (PostResult, error) {
	budgetCode, spentCode := budgetSpentPair(class)

	ticketPosted, err := ra.postOrRetry(ctx, orderID, KindTicketPost, budgetCode, spentCode, ticketPendingID)
	if err != nil {
		return PostResult{}, fmt.Errorf("post ticket: %w", err)
	}

	result := PostResult{TicketPosted: ticketPosted}

	if goodiePendingID == nil {
		return result, nil
	}

	goodiePosted, err := ra.postOrRetry(ctx, orderID, KindGoodiePost, CodeGoodiesBudget, CodeGoodiesSpent, *goodiePendingID)
	if err != nil {
		return result, fmt.Errorf("post goodie: %w", err)
	}

	result.GoodiePosted = goodiePosted

	return result, nil
}

func (ra *ResourceAccounting) postOrRetry(ctx context.Context, orderID [16]byte, kind TransferKind, budgetCode, spentCode uint16, pendingID [16]byte) (bool, error) {
	postID := DeriveTransferID(orderID, kind)

	result, err := ra.client.CreateTransfer(ctx, Transfer{
		ID:              postID,
		DebitAccountID:  AccountID(Ledger, budgetCode),
		CreditAccountID: AccountID(Ledger, spentCode),
		Amount:          1,
		Ledger:          Ledger,
		Code:            budgetCode,
		Flags:           FlagPostPending,
		PendingID:       pendingID,
		Timestamp:       time.Now().UTC(),
	})
	if err != nil {
		return false, err
	}

	switch result.Result {
	case ResultOK, ResultExists, ResultPendingAlreadyResolved:
		return true, nil
	case ResultPendingExpired, ResultPendingNotFound:
		retry, err := ra.client.CreateTransfer(ctx, Transfer{
			ID:              postID,
			DebitAccountID:  AccountID(Ledger, budgetCode),
			CreditAccountID: AccountID(Ledger, spentCode),
			Amount:          1,
			Ledger:          Ledger,
			Code:            budgetCode,
			Flags:           FlagNone,
			Timestamp:       time.Now().UTC(),
		})
		if err != nil {
			return false, err
		}

		return retry.Result == ResultOK || retry.Result == ResultExists, nil
	default:
		return false, nil
	}
}

// Void cancels the ticket and optional goodie holds, returning their
// units to budget. Already-expired or already-voided pendings are
// treated as success.
func (ra *ResourceAccounting) Void(ctx context.Context, orderID [16]byte, class TicketClass, ticketPendingID [16]byte, goodiePendingID *[16]byte) error {
	budgetCode, spentCode := budgetSpentPair(class)

	if _, err := ra.client.CreateTransfer(ctx, Transfer{
		ID:              DeriveTransferID(orderID, KindTicketVoid),
		DebitAccountID:  AccountID(Ledger, budgetCode),
		CreditAccountID: AccountID(Ledger, spentCode),
		Amount:          1,
		Ledger:          Ledger,
		Code:            budgetCode,
		Flags:           FlagVoidPending,
		PendingID:       ticketPendingID,
		Timestamp:       time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("void ticket: %w", err)
	}

	if goodiePendingID == nil {
		return nil
	}

	if _, err := ra.client.CreateTransfer(ctx, Transfer{
		ID:              DeriveTransferID(orderID, KindGoodieVoid),
		DebitAccountID:  AccountID(Ledger, CodeGoodiesBudget),
		CreditAccountID: AccountID(Ledger, CodeGoodiesSpent),
		Amount:          1,
		Ledger:          Ledger,
		Code:            CodeGoodiesBudget,
		Flags:           FlagVoidPending,
		PendingID:       *goodiePendingID,
		Timestamp:       time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("void goodie: %w", err)
	}

	return nil
}

// LookupAccountBalance fetches the current balance of one of this
// core's fixed accounts by its well-known code, for operator visibility
// into resource conservation (spec.md §8).
func (ra *ResourceAccounting) LookupAccountBalance(ctx context.Context, code uint16) (AccountLookup, error) {
	return ra.client.LookupAccount(ctx, AccountID(Ledger, code))
}

// BumpRestartCounter posts an immediate transfer from the restart
// counter's budget to its spent account, giving the otherwise-unused
// stats pair a real, queryable purpose: a ledger-native count of process
// restarts. sequence should be monotonically increasing across restarts
// (e.g. derived from the current spent balance) so repeated calls within
// the same process don't collide on id.
func (ra *ResourceAccounting) BumpRestartCounter(ctx context.Context, sequence uint64) error {
	_, err := ra.client.CreateTransfer(ctx, Transfer{
		ID:              DeriveRestartTransferID(sequence),
		DebitAccountID:  AccountID(Ledger, CodeRestartBudget),
		CreditAccountID: AccountID(Ledger, CodeRestartSpent),
		Amount:          1,
		Ledger:          Ledger,
		Code:            CodeRestartBudget,
		Flags:           FlagNone,
		Timestamp:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("bump restart counter: %w", err)
	}

	return nil
}
