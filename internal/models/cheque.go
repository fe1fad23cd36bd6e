package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExtractionStatus string

const (
	ExtractionStatusSuccess ExtractionStatus = "success"
	ExtractionStatusPartial ExtractionStatus = "partial"
	ExtractionStatusFailed  ExtractionStatus = "failed"
)

// ChequeRecord is one extracted cheque, paired by position with the uploaded
// image it came from. Fields are independently empty when extraction failed
// for that field; editing state lives outside this struct.
type ChequeRecord struct {
	BankName     string
	ChequeNumber string
	Amount       decimal.Decimal
	ChequeDate   *time.Time
	Status       ExtractionStatus
}

// ChequeDetail is a finalized cheque persisted on submission.
type ChequeDetail struct {
	ID            uuid.UUID        `db:"id"`
	QuotationID   uuid.UUID        `db:"quotation_id"`
	BankAccountID uuid.UUID        `db:"bank_account_id"`
	BankName      string           `db:"bank_name"`
	ChequeNumber  string           `db:"cheque_number"`
	Amount        decimal.Decimal  `db:"amount"`
	ChequeDate    time.Time        `db:"cheque_date"`
	Status        ExtractionStatus `db:"status"`
	CreatedAt     time.Time        `db:"created_at"`
}
