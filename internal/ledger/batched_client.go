package ledger

import "context"

// balanceQuery is the input item for the get_account_balances batcher.
type balanceQuery struct {
	id    [16]byte
	limit int
}

// BatchedClient is the per-caller facade over a Client: every operation
// is coalesced with concurrent callers by a dedicated Batcher, one per
// operation kind, so no two operation kinds block each other.
type BatchedClient struct {
	accounts  *Batcher[Account, CreateAccountsResult]
	transfers *Batcher[Transfer, CreateTransfersResult]
	lookupAcc *Batcher[[16]byte, AccountLookup]
	lookupTrf *Batcher[[16]byte, TransferLookup]
	balances  *Batcher[balanceQuery, []Balance]
}

// NewBatchedClient wraps client with one Batcher per operation kind.
func NewBatchedClient(client Client) *BatchedClient {
	return &BatchedClient{
		accounts: NewBatcher[Account, CreateAccountsResult](
			func(ctx context.Context, items []Account) ([]CreateAccountsResult, error) {
				return client.CreateAccounts(ctx, items)
			}),
		transfers: NewBatcher[Transfer, CreateTransfersResult](
			func(ctx context.Context, items []Transfer) ([]CreateTransfersResult, error) {
				return client.CreateTransfers(ctx, items)
			}),
		lookupAcc: NewBatcher[[16]byte, AccountLookup](
			func(ctx context.Context, ids [][16]byte) ([]AccountLookup, error) {
				return client.LookupAccounts(ctx, ids)
			}),
		lookupTrf: NewBatcher[[16]byte, TransferLookup](
			func(ctx context.Context, ids [][16]byte) ([]TransferLookup, error) {
				return client.LookupTransfers(ctx, ids)
			}),
		balances: NewBatcher[balanceQuery, []Balance](
			func(ctx context.Context, items []balanceQuery) ([][]Balance, error) {
				out := make([][]Balance, len(items))
				for i, q := range items {
					hist, err := client.GetAccountBalances(ctx, q.id, q.limit)
					if err != nil {
						return nil, err
					}
					out[i] = hist
				}
				return out, nil
			}),
	}
}

// CreateAccount submits a single account creation and waits for its
// batch to be acknowledged.
func (bc *BatchedClient) CreateAccount(ctx context.Context, a Account) (CreateAccountsResult, error) {
	return bc.accounts.Submit(ctx, a)
}

// CreateTransfer submits a single transfer and waits for its batch to be
// acknowledged.
func (bc *BatchedClient) CreateTransfer(ctx context.Context, t Transfer) (CreateTransfersResult, error) {
	return bc.transfers.Submit(ctx, t)
}

// LookupAccount fetches a single account's current balance snapshot.
func (bc *BatchedClient) LookupAccount(ctx context.Context, id [16]byte) (AccountLookup, error) {
	return bc.lookupAcc.Submit(ctx, id)
}

// LookupTransfer fetches a single transfer by id.
func (bc *BatchedClient) LookupTransfer(ctx context.Context, id [16]byte) (TransferLookup, error) {
	return bc.lookupTrf.Submit(ctx, id)
}

// GetAccountBalances fetches an account's balance history.
func (bc *BatchedClient) GetAccountBalances(ctx context.Context, id [16]byte, limit int) ([]Balance, error) {
	return bc.balances.Submit(ctx, balanceQuery{id: id, limit: limit})
}
