package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode identifies how a payment was made
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeCheque       PaymentMode = "cheque"
	PaymentModeCredit       PaymentMode = "credit"
)

// IsValid returns true if the mode is one of the known payment modes
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeBankTransfer, PaymentModeUPI, PaymentModeCheque, PaymentModeCredit:
		return true
	}
	return false
}

// RequiresReference reports whether the mode needs a transaction
// reference. Cash and credit tolerate a blank reference.
func (m PaymentMode) RequiresReference() bool {
	switch m {
	case PaymentModeBankTransfer, PaymentModeUPI, PaymentModeCheque:
		return true
	}
	return false
}

// Payment is one settlement recorded against a purchase bill.
// Payments are append-only: once created they are never edited or
// removed.
type Payment struct {
	ID        string          `json:"id"`
	BillID    int64           `json:"bill_id"`
	Amount    decimal.Decimal `json:"amount"`
	Mode      PaymentMode     `json:"mode"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`
}
