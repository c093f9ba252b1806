package ledger

import "encoding/binary"

// TicketClass is the ticket tier a checkout requests.
type TicketClass string

const (
	ClassA TicketClass = "A"
	ClassB TicketClass = "B"
)

// Ledger is the single numeric ledger tag every account in this core
// lives under.
const Ledger uint32 = 1

// Account codes, per the suggested fixed layout: a budget/spent pair per
// scarce resource plus the restart-counter stats pair and a synthetic
// operator account used only to fund budgets at init.
const (
	CodeClassATicketsBudget uint16 = 2120
	CodeClassATicketsSpent  uint16 = 2125
	CodeClassBTicketsBudget uint16 = 2220
	CodeClassBTicketsSpent  uint16 = 2225
	CodeGoodiesBudget       uint16 = 2110
	CodeGoodiesSpent        uint16 = 2115
	CodeRestartBudget       uint16 = 1005
	CodeRestartSpent        uint16 = 1000
	CodeOperator            uint16 = 9000
)

// AccountID derives a stable 128-bit account id from its ledger tag and
// code: the first 4 bytes are the ledger (big-endian), the next 2 the
// code, the rest zero. Deterministic and collision-free across the fixed
// topology defined above.
func AccountID(ledger uint32, code uint16) [16]byte {
	var id [16]byte
	binary.BigEndian.PutUint32(id[0:4], ledger)
	binary.BigEndian.PutUint16(id[4:6], code)

	return id
}

// budgetSpentPair returns the (budget, spent) account codes for a class.
func budgetSpentPair(class TicketClass) (budget, spent uint16) {
	if class == ClassB {
		return CodeClassBTicketsBudget, CodeClassBTicketsSpent
	}

	return CodeClassATicketsBudget, CodeClassATicketsSpent
}
