package dto

import (
	"time"

	"tenant-onboarding-backend/internal/models"
)

type QuotationResponse struct {
	ID                  string `json:"id"`
	TenantName          string `json:"tenant_name"`
	PropertyName        string `json:"property_name"`
	AnnualRent          string `json:"annual_rent"`
	AnnualRentDisplay   string `json:"annual_rent_display"`
	ExpectedChequeCount int    `json:"expected_cheque_count"`
	PaymentMethod       string `json:"payment_method"`
	CreatedAt           string `json:"created_at"`
}

func QuotationResponseFrom(q *models.Quotation) QuotationResponse {
	return QuotationResponse{
		ID:                  q.ID.String(),
		TenantName:          q.TenantName,
		PropertyName:        q.PropertyName,
		AnnualRent:          q.AnnualRent.String(),
		AnnualRentDisplay:   FormatAmountWhole(q.AnnualRent),
		ExpectedChequeCount: q.ExpectedChequeCount,
		PaymentMethod:       string(q.PaymentMethod),
		CreatedAt:           q.CreatedAt.Format(time.RFC3339),
	}
}
