package dto

import "tenant-onboarding-backend/internal/models"

type BankAccountResponse struct {
	ID                  string `json:"id"`
	BankName            string `json:"bank_name"`
	AccountName         string `json:"account_name"`
	AccountNumberMasked string `json:"account_number_masked"`
	IsPrimary           bool   `json:"is_primary"`
}

// BankAccountResponseFrom masks the account number down to its last four
// digits for display.
func BankAccountResponseFrom(acc *models.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:                  acc.ID.String(),
		BankName:            acc.BankName,
		AccountName:         acc.AccountName,
		AccountNumberMasked: maskAccountNumber(acc.AccountNumber),
		IsPrimary:           acc.IsPrimary,
	}
}

func maskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	masked := make([]byte, len(number)-4)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + number[len(number)-4:]
}
