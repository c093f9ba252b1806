package ledger

import "context"

// Client is the opaque ledger wire protocol as seen by the Batcher: batch
// operations over accounts and transfers, used only from inside the
// Batcher's worker loops — never called directly by request handlers.
type Client interface {
	CreateAccounts(ctx context.Context, accounts []Account) ([]CreateAccountsResult, error)
	CreateTransfers(ctx context.Context, transfers []Transfer) ([]CreateTransfersResult, error)
	LookupAccounts(ctx context.Context, ids [][16]byte) ([]AccountLookup, error)
	LookupTransfers(ctx context.Context, ids [][16]byte) ([]TransferLookup, error)
	GetAccountBalances(ctx context.Context, id [16]byte, limit int) ([]Balance, error)
}
