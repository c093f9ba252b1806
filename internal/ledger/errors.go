package ledger

import "errors"

// ErrResultMissing means the ledger client returned fewer results than
// items submitted — treated as a transient batch failure.
var ErrResultMissing = errors.New("ledger: batch submission returned fewer results than items")
