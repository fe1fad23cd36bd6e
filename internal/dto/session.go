package dto

import (
	"tenant-onboarding-backend/internal/models"
	"tenant-onboarding-backend/internal/notify"
)

const chequeDateLayout = "2006-01-02"

type CreateSessionRequest struct {
	QuotationID string `json:"quotation_id" validate:"required,uuid4"`
}

type UpdateRecordRequest struct {
	Action string `json:"action" validate:"required,oneof=toggle_edit update"`
	Field  string `json:"field" validate:"omitempty,oneof=bank_name cheque_number amount cheque_date"`
	Value  string `json:"value"`
}

type SubmitRequest struct {
	BankAccountID string `json:"bank_account_id"`
}

type UploadedImageResponse struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

type ChequeRecordResponse struct {
	BankName      string `json:"bank_name"`
	ChequeNumber  string `json:"cheque_number"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	ChequeDate    string `json:"cheque_date,omitempty"`
	Status        string `json:"status"`
	NeedsReview   bool   `json:"needs_review"`
	IsEditing     bool   `json:"is_editing"`
	SourceImage   string `json:"source_image"`
}

type SessionResponse struct {
	ID                  string                  `json:"id"`
	QuotationID         string                  `json:"quotation_id"`
	ExpectedChequeCount int                     `json:"expected_cheque_count"`
	PaymentMethod       string                  `json:"payment_method,omitempty"`
	Phase               string                  `json:"phase"`
	Queue               []UploadedImageResponse `json:"queue"`
	Records             []ChequeRecordResponse  `json:"records"`
}

type AddImagesResponse struct {
	Added   int             `json:"added"`
	Dropped int             `json:"dropped"`
	Session SessionResponse `json:"session"`
}

type ProcessResponse struct {
	Notice  notify.Notice   `json:"notice"`
	Session SessionResponse `json:"session"`
}

type SubmittedChequeResponse struct {
	BankName      string `json:"bank_name"`
	ChequeNumber  string `json:"cheque_number"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	ChequeDate    string `json:"cheque_date"`
	Status        string `json:"status"`
}

// SubmitResponse is the outbound payload handed to the parent wizard step.
type SubmitResponse struct {
	ChequeDetails   []SubmittedChequeResponse `json:"cheque_details"`
	BankAccountID   string                    `json:"bank_account_id"`
	BankAccountName string                    `json:"bank_account_name"`
	BankName        string                    `json:"bank_name"`
}

type ValidationErrorResponse struct {
	Errors []string `json:"errors"`
}

// SessionResponseFrom renders the current session state. Caller holds the
// session lock.
func SessionResponseFrom(s *models.IngestionSession) SessionResponse {
	resp := SessionResponse{
		ID:                  s.ID.String(),
		QuotationID:         s.QuotationID.String(),
		ExpectedChequeCount: s.ExpectedCount,
		PaymentMethod:       s.PaymentMethod,
		Phase:               string(s.Phase()),
		Queue:               make([]UploadedImageResponse, 0, len(s.Queue)),
		Records:             make([]ChequeRecordResponse, 0, len(s.Records)),
	}

	for _, img := range s.Queue {
		resp.Queue = append(resp.Queue, UploadedImageResponse{
			FileName: img.FileName,
			Size:     img.Size,
		})
	}

	for i, rec := range s.Records {
		out := ChequeRecordResponse{
			BankName:      rec.BankName,
			ChequeNumber:  rec.ChequeNumber,
			Amount:        rec.Amount.String(),
			AmountDisplay: FormatAmountWhole(rec.Amount),
			Status:        string(rec.Status),
			NeedsReview:   rec.Status != models.ExtractionStatusSuccess,
			IsEditing:     s.EditFlags[i],
			SourceImage:   s.Images[i].FileName,
		}
		if rec.ChequeDate != nil {
			out.ChequeDate = rec.ChequeDate.Format(chequeDateLayout)
		}
		resp.Records = append(resp.Records, out)
	}

	return resp
}

// SubmittedChequeResponseFrom renders one finalized cheque.
func SubmittedChequeResponseFrom(c *models.ChequeDetail) SubmittedChequeResponse {
	return SubmittedChequeResponse{
		BankName:      c.BankName,
		ChequeNumber:  c.ChequeNumber,
		Amount:        c.Amount.String(),
		AmountDisplay: FormatAmountWhole(c.Amount),
		ChequeDate:    c.ChequeDate.Format(chequeDateLayout),
		Status:        string(c.Status),
	}
}
