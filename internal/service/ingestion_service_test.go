package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tenant-onboarding-backend/internal/models"
	"tenant-onboarding-backend/internal/notify"
	"tenant-onboarding-backend/internal/ocr"
	"tenant-onboarding-backend/internal/store"
)

type fakeExtractor struct {
	result        *ocr.BatchResult
	err           error
	hook          func()
	calls         int
	lastImages    []models.UploadedImage
	lastQuotation string
}

func (f *fakeExtractor) ExtractCheques(_ context.Context, images []models.UploadedImage, quotationID string) (*ocr.BatchResult, error) {
	f.calls++
	f.lastImages = images
	f.lastQuotation = quotationID
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeQuotations struct {
	quotation *models.Quotation
}

func (f *fakeQuotations) GetByID(_ context.Context, id uuid.UUID) (*models.Quotation, error) {
	if f.quotation == nil || f.quotation.ID != id {
		return nil, errors.New("no rows in result set")
	}
	return f.quotation, nil
}

type fakeAccounts struct {
	account *models.BankAccount
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.BankAccount, error) {
	if f.account == nil || f.account.ID != id {
		return nil, errors.New("no rows in result set")
	}
	return f.account, nil
}

type fakeCheques struct {
	saved   []*models.ChequeDetail
	batches int
	err     error
}

func (f *fakeCheques) CreateBatch(_ context.Context, _ uuid.UUID, cheques []*models.ChequeDetail) error {
	if f.err != nil {
		return f.err
	}
	f.batches++
	f.saved = cheques
	return nil
}

type testEnv struct {
	svc       *IngestionService
	extractor *fakeExtractor
	recorder  *notify.Recorder
	cheques   *fakeCheques
	quotation *models.Quotation
	account   *models.BankAccount
}

func newTestEnv(t *testing.T, expectedCount int) *testEnv {
	t.Helper()

	quotation := &models.Quotation{
		ID:                  uuid.New(),
		TenantName:          "Aisha Rahman",
		PropertyName:        "Marina Heights 1204",
		AnnualRent:          decimal.NewFromInt(96000),
		ExpectedChequeCount: expectedCount,
		PaymentMethod:       models.PaymentMethodCheque,
	}
	account := &models.BankAccount{
		ID:          uuid.New(),
		BankName:    "Emirates NBD",
		AccountName: "Horizon Property Management LLC",
	}

	extractor := &fakeExtractor{}
	recorder := &notify.Recorder{}
	cheques := &fakeCheques{}

	svc := NewIngestionService(
		store.NewSessionStore(4, time.Minute),
		extractor,
		&fakeQuotations{quotation: quotation},
		&fakeAccounts{account: account},
		cheques,
		recorder,
		12,
		zaptest.NewLogger(t),
	)

	return &testEnv{
		svc:       svc,
		extractor: extractor,
		recorder:  recorder,
		cheques:   cheques,
		quotation: quotation,
		account:   account,
	}
}

func (e *testEnv) startSession(t *testing.T) uuid.UUID {
	t.Helper()
	session, err := e.svc.StartSession(context.Background(), e.quotation.ID)
	require.NoError(t, err)
	return session.ID
}

func image(name string) models.UploadedImage {
	return models.UploadedImage{FileName: name, Size: 3, Data: []byte("img")}
}

func images(names ...string) []models.UploadedImage {
	out := make([]models.UploadedImage, len(names))
	for i, name := range names {
		out[i] = image(name)
	}
	return out
}

func strPtr(s string) *string { return &s }

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// successResult builds a batch where every cheque extracted fully, one per
// image name.
func successResult(names ...string) *ocr.BatchResult {
	result := &ocr.BatchResult{OverallStatus: ocr.BatchStatusSuccess}
	for i, name := range names {
		result.Cheques = append(result.Cheques, ocr.ExtractedCheque{
			BankName:     strPtr("Bank of " + name),
			ChequeNumber: strPtr("CHQ-00" + string(rune('1'+i))),
			Amount:       decPtr(decimal.NewFromInt(int64(1000 * (i + 1)))),
			ChequeDate:   datePtr(2026, time.September, 1+i),
			Status:       models.ExtractionStatusSuccess,
		})
	}
	return result
}

func TestStartSessionUnknownQuotation(t *testing.T) {
	env := newTestEnv(t, 3)

	_, err := env.svc.StartSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrQuotationNotFound)
}

func TestAddImagesCapsAtTwelve(t *testing.T) {
	env := newTestEnv(t, 3)
	id := env.startSession(t)

	added, dropped, err := env.svc.AddImages(id, images("a", "b", "c", "d", "e"))
	require.NoError(t, err)
	assert.Equal(t, 5, added)
	assert.Equal(t, 0, dropped)

	added, dropped, err = env.svc.AddImages(id, images("f", "g", "h", "i", "j"))
	require.NoError(t, err)
	assert.Equal(t, 5, added)
	assert.Equal(t, 0, dropped)

	// Only two slots remain; overflow drops silently.
	added, dropped, err = env.svc.AddImages(id, images("k", "l", "m", "n"))
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, dropped)

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.Len(t, session.Queue, 12)

	// Full queue: further adds are no-ops.
	added, dropped, err = env.svc.AddImages(id, images("z"))
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, dropped)
}

func TestProcessEmptyQueueFailsFast(t *testing.T) {
	env := newTestEnv(t, 3)
	id := env.startSession(t)

	_, err := env.svc.Process(context.Background(), id)
	assert.ErrorIs(t, err, ErrNoImages)
	assert.Zero(t, env.extractor.calls)
}

func TestProcessPairsRecordsToImages(t *testing.T) {
	env := newTestEnv(t, 3)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	env.extractor.result = successResult("a.jpg", "b.jpg", "c.jpg")

	notice, err := env.svc.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, notify.SeveritySuccess, notice.Severity)

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	require.Len(t, session.Records, 3)
	require.Len(t, session.Images, 3)
	for i, record := range session.Records {
		assert.Equal(t, "Bank of "+session.Images[i].FileName, record.BankName)
	}
	assert.Equal(t, models.PhaseReviewing, session.Phase())
	assert.Equal(t, env.quotation.ID.String(), env.extractor.lastQuotation)

	require.Len(t, env.recorder.Notices, 1)
	assert.Equal(t, notify.SeveritySuccess, env.recorder.Notices[0].Severity)
}

func TestProcessPartialSuccessFlagsForReview(t *testing.T) {
	env := newTestEnv(t, 2)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg", "b.jpg"))
	require.NoError(t, err)

	env.extractor.result = &ocr.BatchResult{
		OverallStatus:     ocr.BatchStatusPartialSuccess,
		ValidationMessage: "1 of 2 cheques could not be read",
		Cheques: []ocr.ExtractedCheque{
			{
				BankName:     strPtr("Emirates NBD"),
				ChequeNumber: strPtr("CHQ-100"),
				Amount:       decPtr(decimal.NewFromInt(1000)),
				ChequeDate:   datePtr(2026, time.October, 1),
				Status:       models.ExtractionStatusSuccess,
			},
			{Status: models.ExtractionStatusFailed},
		},
	}

	notice, err := env.svc.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, notify.SeverityWarning, notice.Severity)
	assert.Equal(t, "1 of 2 cheques could not be read", notice.Message)

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	require.Len(t, session.Records, 2)
	assert.Equal(t, models.ExtractionStatusFailed, session.Records[1].Status)

	// Submission is blocked until the failed record is completed.
	_, err = env.svc.Submit(context.Background(), id, env.account.ID.String())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Messages, "Cheque 2: cheque number is required")
	assert.Contains(t, validationErr.Messages, "Cheque 2: amount must be greater than zero")
	assert.Contains(t, validationErr.Messages, "Cheque 2: cheque date is required")

	// Fill in the missing fields and resubmit.
	require.NoError(t, env.svc.UpdateField(id, 1, "cheque_number", "CHQ-101"))
	require.NoError(t, env.svc.UpdateField(id, 1, "amount", "1000"))
	require.NoError(t, env.svc.UpdateField(id, 1, "cheque_date", "2026-11-01"))

	result, err := env.svc.Submit(context.Background(), id, env.account.ID.String())
	require.NoError(t, err)
	assert.Len(t, result.Cheques, 2)
}

func TestProcessCountMismatchIsBlockingError(t *testing.T) {
	env := newTestEnv(t, 2)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg", "b.jpg"))
	require.NoError(t, err)

	env.extractor.result = successResult("a.jpg")

	notice, err := env.svc.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, notify.SeverityError, notice.Severity)
	assert.Contains(t, notice.Message, "1 records for 2 images")

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.Empty(t, session.Records)
	assert.Len(t, session.Queue, 2)
}

func TestProcessFailurePreservesState(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg"))
	require.NoError(t, err)

	env.extractor.result = successResult("a.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	// Second run fails at the service; queue and prior records survive.
	env.extractor.result = nil
	env.extractor.err = &ocr.ExtractionError{
		Kind:    ocr.ErrorKindValidation,
		Message: "Quotation has no pending cheque schedule",
	}

	notice, err := env.svc.Process(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, notify.SeverityError, notice.Severity)
	assert.Equal(t, "Quotation has no pending cheque schedule", notice.Message)

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.Len(t, session.Records, 1)
	assert.Len(t, session.Queue, 1)
	assert.False(t, session.Processing)
}

func TestProcessReplacesRecordSet(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg"))
	require.NoError(t, err)

	env.extractor.result = successResult("a.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	_, _, err = env.svc.AddImages(id, images("b.jpg"))
	require.NoError(t, err)

	env.extractor.result = successResult("a.jpg", "b.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.Len(t, session.Records, 2)
	assert.Len(t, session.Images, 2)
}

func TestToggleEditIdempotentPair(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	before := session.Records[0]

	require.NoError(t, env.svc.ToggleEdit(id, 0))
	assert.True(t, session.EditFlags[0])

	require.NoError(t, env.svc.ToggleEdit(id, 0))
	assert.False(t, session.EditFlags[0])
	assert.Equal(t, before, session.Records[0])
}

func TestRemoveRecordKeepsListsInLockstep(t *testing.T) {
	env := newTestEnv(t, 3)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg", "b.jpg", "c.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, env.svc.ToggleEdit(id, 2))

	require.NoError(t, env.svc.RemoveRecord(id, 1))

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	require.Len(t, session.Records, 2)
	require.Len(t, session.Images, 2)
	require.Len(t, session.EditFlags, 2)
	assert.Equal(t, "a.jpg", session.Images[0].FileName)
	assert.Equal(t, "c.jpg", session.Images[1].FileName)
	assert.Equal(t, "Bank of c.jpg", session.Records[1].BankName)
	// The edit flag set on the old index 2 followed its record down.
	assert.True(t, session.EditFlags[1])
}

func TestRemoveImageDoesNotTouchRecords(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg", "b.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg", "b.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, env.svc.RemoveImage(id, 0))

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.Len(t, session.Queue, 1)
	assert.Len(t, session.Records, 2)
	assert.Len(t, session.Images, 2)
}

func TestSubmitRequiresBankAccount(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	_, err = env.svc.Submit(context.Background(), id, "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Messages, "A pay-to bank account must be selected")
	assert.Zero(t, env.cheques.batches)
}

func TestSubmitShortfallNamesBothNumbers(t *testing.T) {
	env := newTestEnv(t, 3)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg", "b.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg", "b.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	_, err = env.svc.Submit(context.Background(), id, env.account.ID.String())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Messages, "Expected 3 cheques, but only 2 uploaded")
	assert.Zero(t, env.cheques.batches)

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.False(t, session.Submitted)
	assert.Len(t, session.Records, 2)
}

func TestBlockedSubmitMutatesNothing(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, env.svc.UpdateField(id, 0, "cheque_number", ""))

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	before := make([]models.ChequeRecord, len(session.Records))
	copy(before, session.Records)

	_, err = env.svc.Submit(context.Background(), id, env.account.ID.String())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	assert.Equal(t, before, session.Records)
	assert.False(t, session.Submitted)
	assert.Len(t, session.Queue, 1)
}

func TestSubmitSuccessEmitsOutboundPayloadOnce(t *testing.T) {
	env := newTestEnv(t, 3)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg", "b.jpg", "c.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	result, err := env.svc.Submit(context.Background(), id, env.account.ID.String())
	require.NoError(t, err)
	require.Len(t, result.Cheques, 3)
	assert.Equal(t, env.account.ID, result.BankAccountID)
	assert.Equal(t, "Horizon Property Management LLC", result.BankAccountName)
	assert.Equal(t, "Emirates NBD", result.BankName)

	assert.Equal(t, 1, env.cheques.batches)
	require.Len(t, env.cheques.saved, 3)
	for _, cheque := range env.cheques.saved {
		assert.Equal(t, env.quotation.ID, cheque.QuotationID)
		assert.Equal(t, env.account.ID, cheque.BankAccountID)
	}

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, models.PhaseSubmitted, session.Phase())
	assert.Empty(t, session.Queue)

	// Terminal: a second submit does not fire the callback again.
	_, err = env.svc.Submit(context.Background(), id, env.account.ID.String())
	assert.ErrorIs(t, err, ErrSessionSubmitted)
	assert.Equal(t, 1, env.cheques.batches)
}

func TestResetDiscardsRecordsAndFiles(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, env.svc.Reset(id))

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.Empty(t, session.Queue)
	assert.Empty(t, session.Records)
	assert.Equal(t, models.PhaseUploading, session.Phase())
}

func TestStaleExtractionResultDiscarded(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg"))
	require.NoError(t, err)

	env.extractor.result = successResult("a.jpg")
	// The step moves on while the extraction call is in flight.
	env.extractor.hook = func() {
		require.NoError(t, env.svc.Reset(id))
	}

	_, err = env.svc.Process(context.Background(), id)
	assert.ErrorIs(t, err, ErrStaleResult)

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	assert.Empty(t, session.Records)
	assert.False(t, session.Processing)
}

func TestUpdateFieldCoercion(t *testing.T) {
	env := newTestEnv(t, 1)
	id := env.startSession(t)

	_, _, err := env.svc.AddImages(id, images("a.jpg"))
	require.NoError(t, err)
	env.extractor.result = successResult("a.jpg")
	_, err = env.svc.Process(context.Background(), id)
	require.NoError(t, err)

	require.NoError(t, env.svc.UpdateField(id, 0, "amount", "2500.50"))
	require.NoError(t, env.svc.UpdateField(id, 0, "cheque_date", "2027-01-15"))
	require.NoError(t, env.svc.UpdateField(id, 0, "bank_name", "Mashreq Bank"))

	session, err := env.svc.GetSession(id)
	require.NoError(t, err)
	record := session.Records[0]
	assert.True(t, record.Amount.Equal(decimal.RequireFromString("2500.50")))
	assert.Equal(t, "Mashreq Bank", record.BankName)
	require.NotNil(t, record.ChequeDate)
	assert.Equal(t, 2027, record.ChequeDate.Year())

	// Clearing the date makes it null again.
	require.NoError(t, env.svc.UpdateField(id, 0, "cheque_date", ""))
	assert.Nil(t, session.Records[0].ChequeDate)

	assert.Error(t, env.svc.UpdateField(id, 0, "amount", "not-a-number"))
	assert.Error(t, env.svc.UpdateField(id, 0, "colour", "blue"))
	assert.ErrorIs(t, env.svc.UpdateField(id, 5, "amount", "1"), ErrIndexOutOfRange)
}
