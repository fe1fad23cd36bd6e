package ocr

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tenant-onboarding-backend/internal/models"
)

type BatchStatus string

const (
	BatchStatusSuccess         BatchStatus = "success"
	BatchStatusPartialSuccess  BatchStatus = "partial_success"
	BatchStatusValidationError BatchStatus = "validation_error"
	BatchStatusProcessingError BatchStatus = "processing_error"
)

// ExtractedCheque is one cheque as returned by the extraction service.
// Pointer fields are nil when that field could not be read off the image.
type ExtractedCheque struct {
	BankName     *string
	ChequeNumber *string
	Amount       *decimal.Decimal
	ChequeDate   *time.Time
	Status       models.ExtractionStatus
}

// BatchResult is the aggregate outcome of one extraction call. Cheques are
// ordered to match the submitted images one-to-one.
type BatchResult struct {
	OverallStatus     BatchStatus
	ValidationMessage string
	Cheques           []ExtractedCheque
}

// Extractor submits cheque images to the external text-extraction service.
// The quotation id correlates the batch with its payment context.
type Extractor interface {
	ExtractCheques(ctx context.Context, images []models.UploadedImage, quotationID string) (*BatchResult, error)
}
