package models

import (
	"time"

	"github.com/google/uuid"
)

// BankAccount is a pay-to account selectable during cheque submission.
// Read-only from the onboarding flow's perspective.
type BankAccount struct {
	ID            uuid.UUID `db:"id"`
	BankName      string    `db:"bank_name"`
	AccountName   string    `db:"account_name"`
	AccountNumber string    `db:"account_number"`
	IsPrimary     bool      `db:"is_primary"`
	CreatedAt     time.Time `db:"created_at"`
}
