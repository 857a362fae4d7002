// Package fees holds the pure payment rules: late fees, abono balances and
// graduation eligibility. Nothing here performs I/O.
package fees

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LateFee is the flat surcharge for tuition and course months paid after the 5th.
var LateFee = decimal.NewFromInt(30)

const (
	lateFeeFirstMonth Month = 2
	lateFeeLastMonth  Month = 10
	dueDay                  = 5
)

// Rule violations. Callers translate them into validation errors.
var (
	ErrInvalidMonth     = errors.New("mes inválido")
	ErrInvalidTotal     = errors.New("el monto total debe ser mayor a 0")
	ErrNegativeAbono    = errors.New("el abono no puede ser negativo")
	ErrAbonoExceeds     = errors.New("el abono no puede ser mayor al monto pendiente")
	ErrAbonoNotPositive = errors.New("el abono debe ser mayor a 0")
	ErrSettled          = errors.New("el pago ya está cancelado")
)

// State is the lifecycle state of a flat-fee or graduation balance.
type State string

// Balance states.
const (
	StateNoRecord      State = "NO_RECORD"
	StatePartiallyPaid State = "PARTIALLY_PAID"
	StateSettled       State = "SETTLED"
)

// Balance is a running total for one payment category.
type Balance struct {
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
}

// IsSettled reports whether nothing remains to be paid.
func (b Balance) IsSettled() bool {
	return !b.Pending.IsPositive()
}

// StateOf classifies an optional balance.
func StateOf(b *Balance) State {
	switch {
	case b == nil:
		return StateNoRecord
	case b.IsSettled():
		return StateSettled
	default:
		return StatePartiallyPaid
	}
}

// Mora returns the late fee for month as of now. Months outside February-October
// never carry a fee; otherwise the fee applies once now's calendar date is past
// the 5th of that month in now's year.
func Mora(month Month, now time.Time) decimal.Decimal {
	if month < lateFeeFirstMonth || month > lateFeeLastMonth {
		return decimal.Zero
	}
	due := time.Date(now.Year(), time.Month(month), dueDay, 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if today.After(due) {
		return LateFee
	}
	return decimal.Zero
}

// TotalWithMora is the advisory amount shown before submitting a monthly payment.
func TotalWithMora(base decimal.Decimal, month Month, now time.Time) decimal.Decimal {
	return base.Add(Mora(month, now))
}

// Register opens a balance with an initial abono.
func Register(total, abono decimal.Decimal) (Balance, error) {
	if !total.IsPositive() {
		return Balance{}, ErrInvalidTotal
	}
	if abono.IsNegative() {
		return Balance{}, ErrNegativeAbono
	}
	if abono.GreaterThan(total) {
		return Balance{}, ErrAbonoExceeds
	}
	return Balance{
		Total:   total,
		Paid:    abono,
		Pending: nonNegative(total.Sub(abono)),
	}, nil
}

// ApplyAbono pays part or all of the pending amount.
func ApplyAbono(b Balance, abono decimal.Decimal) (Balance, error) {
	if b.IsSettled() {
		return b, ErrSettled
	}
	if !abono.IsPositive() {
		return b, ErrAbonoNotPositive
	}
	if abono.GreaterThan(b.Pending) {
		return b, ErrAbonoExceeds
	}
	return Balance{
		Total:   b.Total,
		Paid:    b.Paid.Add(abono),
		Pending: nonNegative(b.Pending.Sub(abono)),
	}, nil
}

// AvailableMonths filters catalog down to the months that have no payment yet.
func AvailableMonths(catalog []Month, paid []Month) []Month {
	taken := make(map[Month]struct{}, len(paid))
	for _, m := range paid {
		taken[m] = struct{}{}
	}
	result := make([]Month, 0, len(catalog))
	for _, m := range catalog {
		if _, ok := taken[m]; ok {
			continue
		}
		result = append(result, m)
	}
	return result
}

// Contains reports whether month is already in paid.
func Contains(paid []Month, month Month) bool {
	for _, m := range paid {
		if m == month {
			return true
		}
	}
	return false
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
