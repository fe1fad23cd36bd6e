package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCheque PaymentMethod = "cheque"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodMixed  PaymentMethod = "mixed"
)

// Quotation is the upstream payment context for an onboarding step. The
// expected cheque count is computed by the quotation workflow (it already
// accounts for a cash first payment) and is treated as opaque here.
type Quotation struct {
	ID                  uuid.UUID       `db:"id"`
	TenantName          string          `db:"tenant_name"`
	PropertyName        string          `db:"property_name"`
	AnnualRent          decimal.Decimal `db:"annual_rent"`
	ExpectedChequeCount int             `db:"expected_cheque_count"`
	PaymentMethod       PaymentMethod   `db:"payment_method"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
}
