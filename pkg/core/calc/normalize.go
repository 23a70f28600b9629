package calc

import "finmodeling/pkg/core/xbrl"

// Policy selects how a leaf's sign is derived when flattening a calculation.
type Policy int

const (
	// PolicyNone passes the value through, signed by its arc weights.
	PolicyNone Policy = iota
	// PolicyFlip inverts the raw value; the balance type defines the sign.
	PolicyFlip
)

// ValueMapping holds a sign policy per balance type. Liabilities and equity
// are naturally credits, so their statement flips debit items (treasury
// stock, deficits) negative; income statements keep the zero mapping and
// rely on arc weights instead.
type ValueMapping struct {
	Debit  Policy
	Credit Policy
}

// FlipDebits is the liabilities-and-equity mapping.
var FlipDebits = ValueMapping{Debit: PolicyFlip}

// Map returns the value to record for a leaf. weight is the product of arc
// weights from the resolved root down to the leaf.
func (m ValueMapping) Map(balance xbrl.Balance, weight, raw float64) float64 {
	if m.policyFor(balance) == PolicyFlip {
		return -raw
	}
	return raw * weight
}

func (m ValueMapping) policyFor(balance xbrl.Balance) Policy {
	switch balance {
	case xbrl.BalanceDebit:
		return m.Debit
	case xbrl.BalanceCredit:
		return m.Credit
	}
	return PolicyNone
}
