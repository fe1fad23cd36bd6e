package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tenant-onboarding-backend/internal/models"
	"tenant-onboarding-backend/pkg/config"
)

const chequeDateLayout = "2006-01-02"

// Client calls the external cheque-extraction REST service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

func NewClient(cfg *config.ExtractorConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

type wireCheque struct {
	BankName     *string `json:"bank_name"`
	ChequeNumber *string `json:"cheque_number"`
	Amount       *string `json:"amount"`
	ChequeDate   *string `json:"cheque_date"`
	Status       string  `json:"status"`
}

type wireResult struct {
	OverallStatus     string       `json:"overall_status"`
	ValidationMessage string       `json:"validation_message"`
	Cheques           []wireCheque `json:"cheques"`
}

type wireError struct {
	Message string `json:"message"`
	Error   struct {
		ValidationMessage string `json:"validation_message"`
		Message           string `json:"message"`
	} `json:"error"`
}

// ExtractCheques posts the batch as multipart form data and decodes the
// service response. All failures come back as *ExtractionError.
func (c *Client) ExtractCheques(ctx context.Context, images []models.UploadedImage, quotationID string) (*BatchResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("quotation_id", quotationID); err != nil {
		return nil, &ExtractionError{Kind: ErrorKindTransport, Message: FallbackMessage}
	}
	for _, img := range images {
		part, err := writer.CreateFormFile("images", img.FileName)
		if err != nil {
			return nil, &ExtractionError{Kind: ErrorKindTransport, Message: FallbackMessage}
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, &ExtractionError{Kind: ErrorKindTransport, Message: FallbackMessage}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, &ExtractionError{Kind: ErrorKindTransport, Message: FallbackMessage}
	}

	url := c.baseURL + "/v1/cheques/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, &ExtractionError{Kind: ErrorKindTransport, Message: FallbackMessage}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Extraction request failed", zap.Error(err))
		return nil, &ExtractionError{Kind: ErrorKindTransport, Message: FallbackMessage}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{Kind: ErrorKindTransport, Message: FallbackMessage}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.mapError(resp.StatusCode, payload)
	}

	var wire wireResult
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, &ExtractionError{Kind: ErrorKindProcessing, Message: FallbackMessage}
	}

	result, err := mapResult(&wire)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Extraction completed",
		zap.String("quotation_id", quotationID),
		zap.Int("images", len(images)),
		zap.String("overall_status", string(result.OverallStatus)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

// mapError picks the most specific message available: the nested validation
// message, then the nested message, then the top-level one.
func (c *Client) mapError(status int, payload []byte) *ExtractionError {
	kind := ErrorKindProcessing
	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
		kind = ErrorKindValidation
	}

	var wire wireError
	if err := json.Unmarshal(payload, &wire); err != nil {
		return &ExtractionError{Kind: kind, Message: FallbackMessage}
	}

	msg := wire.Error.ValidationMessage
	if msg == "" {
		msg = wire.Error.Message
	}
	if msg == "" {
		msg = wire.Message
	}
	if msg == "" {
		msg = FallbackMessage
	}

	return &ExtractionError{Kind: kind, Message: msg}
}

func mapResult(wire *wireResult) (*BatchResult, error) {
	result := &BatchResult{
		ValidationMessage: wire.ValidationMessage,
		Cheques:           make([]ExtractedCheque, 0, len(wire.Cheques)),
	}

	switch wire.OverallStatus {
	case "success":
		result.OverallStatus = BatchStatusSuccess
	case "partial_success":
		result.OverallStatus = BatchStatusPartialSuccess
	case "validation_error":
		result.OverallStatus = BatchStatusValidationError
	default:
		result.OverallStatus = BatchStatusProcessingError
	}

	for _, wc := range wire.Cheques {
		cheque := ExtractedCheque{
			BankName:     wc.BankName,
			ChequeNumber: wc.ChequeNumber,
		}

		if wc.Amount != nil {
			amount, err := decimal.NewFromString(*wc.Amount)
			if err != nil {
				return nil, &ExtractionError{
					Kind:    ErrorKindProcessing,
					Message: fmt.Sprintf("invalid amount %q in extraction response", *wc.Amount),
				}
			}
			cheque.Amount = &amount
		}

		if wc.ChequeDate != nil {
			date, err := time.Parse(chequeDateLayout, *wc.ChequeDate)
			if err != nil {
				return nil, &ExtractionError{
					Kind:    ErrorKindProcessing,
					Message: fmt.Sprintf("invalid cheque date %q in extraction response", *wc.ChequeDate),
				}
			}
			cheque.ChequeDate = &date
		}

		switch wc.Status {
		case "success":
			cheque.Status = models.ExtractionStatusSuccess
		case "partial":
			cheque.Status = models.ExtractionStatusPartial
		default:
			cheque.Status = models.ExtractionStatusFailed
		}

		result.Cheques = append(result.Cheques, cheque)
	}

	return result, nil
}
