package ledger

import "crypto/sha256"

// TransferKind names the role a derived transfer id plays within an
// order's lifecycle. Deriving ids from (order_id, kind) means a retried
// webhook resubmits the identical id every time, and the ledger's
// duplicate-id handling absorbs the replay.
type TransferKind string

const (
	KindTicketHold   TransferKind = "ticket_hold"
	KindGoodieHold   TransferKind = "goodie_hold"
	KindTicketPost   TransferKind = "ticket_post"
	KindGoodiePost   TransferKind = "goodie_post"
	KindTicketVoid   TransferKind = "ticket_void"
	KindGoodieVoid   TransferKind = "goodie_void"
	KindRestartBump  TransferKind = "restart_bump"
)

// DeriveTransferID computes a deterministic 128-bit transfer id from an
// order id and a transfer kind, per spec: sha256(order_id||kind)[:16].
func DeriveTransferID(orderID [16]byte, kind TransferKind) [16]byte {
	h := sha256.New()
	h.Write(orderID[:])
	h.Write([]byte(kind))

	sum := h.Sum(nil)

	var id [16]byte
	copy(id[:], sum[:16])

	return id
}

// DeriveRestartTransferID derives a restart-counter transfer id from a
// monotonically increasing restart sequence number, so each process
// start produces a fresh, stable id rather than colliding on replay.
func DeriveRestartTransferID(sequence uint64) [16]byte {
	h := sha256.New()
	h.Write([]byte(KindRestartBump))

	var seqBytes [8]byte
	for i := 0; i < 8; i++ {
		seqBytes[i] = byte(sequence >> (8 * i))
	}

	h.Write(seqBytes[:])

	sum := h.Sum(nil)

	var id [16]byte
	copy(id[:], sum[:16])

	return id
}
