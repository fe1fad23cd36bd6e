package ocr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tenant-onboarding-backend/internal/models"
	"tenant-onboarding-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&config.ExtractorConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, zaptest.NewLogger(t))

	return client, server
}

func testImages(names ...string) []models.UploadedImage {
	out := make([]models.UploadedImage, len(names))
	for i, name := range names {
		out[i] = models.UploadedImage{FileName: name, Size: 3, Data: []byte("img")}
	}
	return out
}

func TestExtractChequesSuccess(t *testing.T) {
	var gotPath, gotAuth, gotQuotation string
	var gotFiles int

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotQuotation = r.FormValue("quotation_id")
		gotFiles = len(r.MultipartForm.File["images"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"overall_status": "success",
			"cheques": [
				{"bank_name": "Emirates NBD", "cheque_number": "CHQ-001", "amount": "8000.00", "cheque_date": "2026-09-01", "status": "success"},
				{"bank_name": "Mashreq Bank", "cheque_number": "CHQ-002", "amount": "8000.00", "cheque_date": "2026-12-01", "status": "success"}
			]
		}`))
	})

	result, err := client.ExtractCheques(context.Background(), testImages("a.jpg", "b.jpg"), "quot-1")
	require.NoError(t, err)

	assert.Equal(t, "/v1/cheques/extract", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "quot-1", gotQuotation)
	assert.Equal(t, 2, gotFiles)

	assert.Equal(t, BatchStatusSuccess, result.OverallStatus)
	require.Len(t, result.Cheques, 2)

	first := result.Cheques[0]
	require.NotNil(t, first.BankName)
	assert.Equal(t, "Emirates NBD", *first.BankName)
	require.NotNil(t, first.Amount)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(8000)))
	require.NotNil(t, first.ChequeDate)
	assert.Equal(t, time.September, first.ChequeDate.Month())
	assert.Equal(t, models.ExtractionStatusSuccess, first.Status)
}

func TestExtractChequesPartialWithNullFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"overall_status": "partial_success",
			"validation_message": "1 of 2 cheques could not be read",
			"cheques": [
				{"bank_name": "Emirates NBD", "cheque_number": "CHQ-001", "amount": "8000.00", "cheque_date": "2026-09-01", "status": "success"},
				{"bank_name": null, "cheque_number": null, "amount": null, "cheque_date": null, "status": "failed"}
			]
		}`))
	})

	result, err := client.ExtractCheques(context.Background(), testImages("a.jpg", "b.jpg"), "quot-1")
	require.NoError(t, err)

	assert.Equal(t, BatchStatusPartialSuccess, result.OverallStatus)
	assert.Equal(t, "1 of 2 cheques could not be read", result.ValidationMessage)
	require.Len(t, result.Cheques, 2)

	second := result.Cheques[1]
	assert.Nil(t, second.BankName)
	assert.Nil(t, second.Amount)
	assert.Nil(t, second.ChequeDate)
	assert.Equal(t, models.ExtractionStatusFailed, second.Status)
}

func TestExtractChequesErrorMessagePreference(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		kind    ErrorKind
		message string
	}{
		{
			name:    "nested validation message wins",
			status:  http.StatusUnprocessableEntity,
			payload: `{"message": "outer", "error": {"validation_message": "Quotation has no pending cheque schedule", "message": "inner"}}`,
			kind:    ErrorKindValidation,
			message: "Quotation has no pending cheque schedule",
		},
		{
			name:    "nested message next",
			status:  http.StatusBadRequest,
			payload: `{"message": "outer", "error": {"message": "inner"}}`,
			kind:    ErrorKindValidation,
			message: "inner",
		},
		{
			name:    "top level message last",
			status:  http.StatusInternalServerError,
			payload: `{"message": "outer"}`,
			kind:    ErrorKindProcessing,
			message: "outer",
		},
		{
			name:    "fallback on empty body",
			status:  http.StatusBadGateway,
			payload: `{}`,
			kind:    ErrorKindProcessing,
			message: FallbackMessage,
		},
		{
			name:    "fallback on non-json body",
			status:  http.StatusInternalServerError,
			payload: `<html>gateway timeout</html>`,
			kind:    ErrorKindProcessing,
			message: FallbackMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			})

			_, err := client.ExtractCheques(context.Background(), testImages("a.jpg"), "quot-1")
			require.Error(t, err)

			var extractionErr *ExtractionError
			require.ErrorAs(t, err, &extractionErr)
			assert.Equal(t, tt.kind, extractionErr.Kind)
			assert.Equal(t, tt.message, extractionErr.UserMessage())
		})
	}
}

func TestExtractChequesTransportFailure(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.ExtractCheques(context.Background(), testImages("a.jpg"), "quot-1")
	require.Error(t, err)

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, ErrorKindTransport, extractionErr.Kind)
	assert.Equal(t, FallbackMessage, extractionErr.UserMessage())
}

func TestExtractChequesMalformedAmount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"overall_status": "success", "cheques": [{"amount": "eight thousand", "status": "success"}]}`))
	})

	_, err := client.ExtractCheques(context.Background(), testImages("a.jpg"), "quot-1")
	require.Error(t, err)

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, ErrorKindProcessing, extractionErr.Kind)
}
