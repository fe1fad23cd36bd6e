package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tenant-onboarding-backend/internal/models"
	"tenant-onboarding-backend/internal/notify"
	"tenant-onboarding-backend/internal/ocr"
	"tenant-onboarding-backend/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound    = errors.New("ingestion session not found or expired")
	ErrSessionSubmitted   = errors.New("ingestion session already submitted")
	ErrNoImages           = errors.New("select at least one cheque image")
	ErrProcessingInFlight = errors.New("extraction already in progress for this session")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrQuotationNotFound  = errors.New("quotation not found")
	ErrStaleResult        = errors.New("extraction result discarded, the step has moved on")
)

// ValidationError carries all blocking submission errors, collected rather
// than fail-fast.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// SubmitResult is the outbound payload handed to the parent wizard step on a
// successful submission.
type SubmitResult struct {
	Cheques         []*models.ChequeDetail
	BankAccountID   uuid.UUID
	BankAccountName string
	BankName        string
}

// QuotationGetter supplies the upstream payment context.
type QuotationGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error)
}

// BankAccountGetter resolves the selected pay-to account.
type BankAccountGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.BankAccount, error)
}

// ChequeWriter persists a finalized cheque batch.
type ChequeWriter interface {
	CreateBatch(ctx context.Context, quotationID uuid.UUID, cheques []*models.ChequeDetail) error
}

// IngestionService drives the cheque upload step: queueing images, invoking
// the extraction service, reconciling results and finalizing the reviewed
// record set.
type IngestionService struct {
	sessions      *store.SessionStore
	extractor     ocr.Extractor
	quotationRepo QuotationGetter
	accountRepo   BankAccountGetter
	chequeRepo    ChequeWriter
	notifier      notify.Notifier
	maxImages     int
	logger        *zap.Logger
}

func NewIngestionService(
	sessions *store.SessionStore,
	extractor ocr.Extractor,
	quotationRepo QuotationGetter,
	accountRepo BankAccountGetter,
	chequeRepo ChequeWriter,
	notifier notify.Notifier,
	maxImages int,
	logger *zap.Logger,
) *IngestionService {
	if maxImages <= 0 {
		maxImages = 12
	}
	return &IngestionService{
		sessions:      sessions,
		extractor:     extractor,
		quotationRepo: quotationRepo,
		accountRepo:   accountRepo,
		chequeRepo:    chequeRepo,
		notifier:      notifier,
		maxImages:     maxImages,
		logger:        logger,
	}
}

// StartSession opens a new upload step instance bound to a quotation. The
// quotation supplies the expected cheque count, already adjusted upstream.
func (s *IngestionService) StartSession(ctx context.Context, quotationID uuid.UUID) (*models.IngestionSession, error) {
	quotation, err := s.quotationRepo.GetByID(ctx, quotationID)
	if err != nil {
		return nil, ErrQuotationNotFound
	}

	session := &models.IngestionSession{
		ID:            uuid.New(),
		QuotationID:   quotation.ID,
		ExpectedCount: quotation.ExpectedChequeCount,
		PaymentMethod: string(quotation.PaymentMethod),
		CreatedAt:     time.Now(),
	}

	s.sessions.Put(session.ID.String(), session)

	s.logger.Info("Ingestion session started",
		zap.String("session_id", session.ID.String()),
		zap.String("quotation_id", quotation.ID.String()),
		zap.Int("expected_cheques", quotation.ExpectedChequeCount),
	)

	return session, nil
}

// GetSession returns the live session for the id.
func (s *IngestionService) GetSession(sessionID uuid.UUID) (*models.IngestionSession, error) {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// AddImages appends files to the upload queue up to the batch cap. Overflow
// is dropped without error, matching the permissive upload policy. Returns
// how many files were accepted and how many were dropped.
func (s *IngestionService) AddImages(sessionID uuid.UUID, images []models.UploadedImage) (added, dropped int, err error) {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return 0, 0, ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Submitted {
		return 0, 0, ErrSessionSubmitted
	}

	capacity := s.maxImages - len(session.Queue)
	if capacity < 0 {
		capacity = 0
	}

	for i, img := range images {
		if i >= capacity {
			break
		}
		session.Queue = append(session.Queue, img)
		added++
	}
	dropped = len(images) - added

	if dropped > 0 {
		s.logger.Info("Upload queue at capacity, extra files dropped",
			zap.String("session_id", sessionID.String()),
			zap.Int("dropped", dropped),
		)
	}

	s.sessions.Touch(sessionID.String())
	return added, dropped, nil
}

// RemoveImage removes one queued file by position. Already-materialized
// records are untouched: queue and records are decoupled once extraction has
// run.
func (s *IngestionService) RemoveImage(sessionID uuid.UUID, index int) error {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Submitted {
		return ErrSessionSubmitted
	}
	if index < 0 || index >= len(session.Queue) {
		return ErrIndexOutOfRange
	}

	session.Queue = append(session.Queue[:index], session.Queue[index+1:]...)
	return nil
}

// Process submits the queued images to the extraction service and replaces
// the record set with the reconciled result. Failures never propagate as
// errors past this method (aside from precondition violations): the outcome
// carries a user-facing notice and the queue is preserved for retry.
func (s *IngestionService) Process(ctx context.Context, sessionID uuid.UUID) (notify.Notice, error) {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return notify.Notice{}, ErrSessionNotFound
	}

	session.Lock()
	if session.Submitted {
		session.Unlock()
		return notify.Notice{}, ErrSessionSubmitted
	}
	if session.Processing {
		session.Unlock()
		return notify.Notice{}, ErrProcessingInFlight
	}
	if len(session.Queue) == 0 {
		session.Unlock()
		return notify.Notice{}, ErrNoImages
	}

	session.Processing = true
	session.Generation++
	generation := session.Generation
	batch := make([]models.UploadedImage, len(session.Queue))
	copy(batch, session.Queue)
	quotationID := session.QuotationID
	session.Unlock()

	result, err := s.extractor.ExtractCheques(ctx, batch, quotationID.String())

	// Re-resolve the session: it may have expired while the call was in
	// flight, and the step may have moved on (submit or reset bumps the
	// generation), in which case the late result is discarded.
	session, ok = s.sessions.Get(sessionID.String())
	if !ok {
		s.logger.Warn("Extraction finished for an expired session",
			zap.String("session_id", sessionID.String()))
		return notify.Notice{}, ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()
	session.Processing = false

	if session.Generation != generation {
		s.logger.Warn("Discarding stale extraction result",
			zap.String("session_id", sessionID.String()),
			zap.Uint64("result_generation", generation),
			zap.Uint64("session_generation", session.Generation),
		)
		return notify.Notice{}, ErrStaleResult
	}

	if err != nil {
		return s.noticeForError(sessionID, err), nil
	}

	if len(result.Cheques) != len(batch) {
		// The service contract promises one record per image. Surface a
		// blocking error rather than silently truncating.
		notice := notify.Notice{
			Severity: notify.SeverityError,
			Message: fmt.Sprintf(
				"Extraction returned %d records for %d images. Please try again.",
				len(result.Cheques), len(batch),
			),
		}
		s.notifier.Notify(notice)
		return notice, nil
	}

	// Materialize a fresh record set. Re-running extraction always replaces,
	// never appends.
	records := make([]models.ChequeRecord, len(result.Cheques))
	for i, cheque := range result.Cheques {
		records[i] = reconcileCheque(cheque)
	}

	session.Records = records
	session.EditFlags = make([]bool, len(records))
	session.Images = batch

	notice := s.noticeForBatch(result)
	s.notifier.Notify(notice)

	s.logger.Info("Extraction batch reconciled",
		zap.String("session_id", sessionID.String()),
		zap.Int("records", len(records)),
		zap.String("overall_status", string(result.OverallStatus)),
	)

	return notice, nil
}

// reconcileCheque maps one extraction result onto a domain record. Absent
// fields stay zero-valued; nothing is recomputed or corrected here.
func reconcileCheque(cheque ocr.ExtractedCheque) models.ChequeRecord {
	record := models.ChequeRecord{
		Amount: decimal.Zero,
		Status: cheque.Status,
	}
	if cheque.BankName != nil {
		record.BankName = *cheque.BankName
	}
	if cheque.ChequeNumber != nil {
		record.ChequeNumber = *cheque.ChequeNumber
	}
	if cheque.Amount != nil {
		record.Amount = *cheque.Amount
	}
	if cheque.ChequeDate != nil {
		date := *cheque.ChequeDate
		record.ChequeDate = &date
	}
	return record
}

func (s *IngestionService) noticeForBatch(result *ocr.BatchResult) notify.Notice {
	switch result.OverallStatus {
	case ocr.BatchStatusSuccess:
		return notify.Notice{
			Severity: notify.SeveritySuccess,
			Message:  "All cheques extracted successfully.",
		}
	case ocr.BatchStatusPartialSuccess:
		msg := result.ValidationMessage
		if msg == "" {
			msg = "Some cheques could not be fully read. Review the highlighted records."
		}
		return notify.Notice{Severity: notify.SeverityWarning, Message: msg}
	case ocr.BatchStatusValidationError:
		msg := result.ValidationMessage
		if msg == "" {
			msg = ocr.FallbackMessage
		}
		return notify.Notice{Severity: notify.SeverityError, Message: msg}
	default:
		return notify.Notice{
			Severity: notify.SeverityError,
			Message:  ocr.FallbackMessage,
		}
	}
}

func (s *IngestionService) noticeForError(sessionID uuid.UUID, err error) notify.Notice {
	var extractionErr *ocr.ExtractionError
	message := ocr.FallbackMessage
	if errors.As(err, &extractionErr) {
		message = extractionErr.UserMessage()
	}

	s.logger.Error("Extraction call failed",
		zap.String("session_id", sessionID.String()),
		zap.Error(err),
	)

	notice := notify.Notice{Severity: notify.SeverityError, Message: message}
	s.notifier.Notify(notice)
	return notice
}

// ToggleEdit flips a record in or out of inline-edit mode. No validation
// happens on entry or exit.
func (s *IngestionService) ToggleEdit(sessionID uuid.UUID, index int) error {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Submitted {
		return ErrSessionSubmitted
	}
	if index < 0 || index >= len(session.EditFlags) {
		return ErrIndexOutOfRange
	}

	session.EditFlags[index] = !session.EditFlags[index]
	return nil
}

// UpdateField overwrites one field of one record. Only type coercion is
// applied; an empty value clears the field.
func (s *IngestionService) UpdateField(sessionID uuid.UUID, index int, field, value string) error {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Submitted {
		return ErrSessionSubmitted
	}
	if index < 0 || index >= len(session.Records) {
		return ErrIndexOutOfRange
	}

	record := &session.Records[index]
	switch field {
	case "bank_name":
		record.BankName = value
	case "cheque_number":
		record.ChequeNumber = value
	case "amount":
		if value == "" {
			record.Amount = decimal.Zero
			return nil
		}
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", value, err)
		}
		record.Amount = amount
	case "cheque_date":
		if value == "" {
			record.ChequeDate = nil
			return nil
		}
		date, err := time.Parse("2006-01-02", value)
		if err != nil {
			return fmt.Errorf("invalid cheque date %q: %w", value, err)
		}
		record.ChequeDate = &date
	default:
		return fmt.Errorf("unknown field %q", field)
	}

	return nil
}

// RemoveRecord deletes one record together with its paired source image so
// the two lists stay in lockstep.
func (s *IngestionService) RemoveRecord(sessionID uuid.UUID, index int) error {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Submitted {
		return ErrSessionSubmitted
	}
	if index < 0 || index >= len(session.Records) {
		return ErrIndexOutOfRange
	}

	session.Records = append(session.Records[:index], session.Records[index+1:]...)
	session.EditFlags = append(session.EditFlags[:index], session.EditFlags[index+1:]...)
	session.Images = append(session.Images[:index], session.Images[index+1:]...)
	return nil
}

// Reset discards all records and queued files, returning the step to the
// uploading phase.
func (s *IngestionService) Reset(sessionID uuid.UUID) error {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Submitted {
		return ErrSessionSubmitted
	}

	session.Queue = nil
	session.Records = nil
	session.EditFlags = nil
	session.Images = nil
	session.Generation++
	return nil
}

// Submit validates and finalizes the reviewed record set. All blocking
// errors are collected and reported together; a blocked submission mutates
// nothing.
func (s *IngestionService) Submit(ctx context.Context, sessionID uuid.UUID, bankAccountID string) (*SubmitResult, error) {
	session, ok := s.sessions.Get(sessionID.String())
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Submitted {
		return nil, ErrSessionSubmitted
	}

	var messages []string

	var accountID uuid.UUID
	if bankAccountID == "" {
		messages = append(messages, "A pay-to bank account must be selected")
	} else {
		parsed, err := uuid.Parse(bankAccountID)
		if err != nil {
			messages = append(messages, "Selected bank account is invalid")
		} else {
			accountID = parsed
		}
	}

	if len(session.Records) < session.ExpectedCount {
		messages = append(messages, fmt.Sprintf(
			"Expected %d cheques, but only %d uploaded",
			session.ExpectedCount, len(session.Records),
		))
	}

	for i, record := range session.Records {
		if strings.TrimSpace(record.ChequeNumber) == "" {
			messages = append(messages, fmt.Sprintf("Cheque %d: cheque number is required", i+1))
		}
		if !record.Amount.IsPositive() {
			messages = append(messages, fmt.Sprintf("Cheque %d: amount must be greater than zero", i+1))
		}
		if record.ChequeDate == nil {
			messages = append(messages, fmt.Sprintf("Cheque %d: cheque date is required", i+1))
		}
	}

	if len(messages) > 0 {
		return nil, &ValidationError{Messages: messages}
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, &ValidationError{Messages: []string{"Selected bank account no longer exists"}}
	}

	now := time.Now()
	cheques := make([]*models.ChequeDetail, len(session.Records))
	for i, record := range session.Records {
		cheques[i] = &models.ChequeDetail{
			ID:            uuid.New(),
			QuotationID:   session.QuotationID,
			BankAccountID: account.ID,
			BankName:      sanitizeUTF8(record.BankName),
			ChequeNumber:  sanitizeUTF8(record.ChequeNumber),
			Amount:        record.Amount,
			ChequeDate:    *record.ChequeDate,
			Status:        record.Status,
			CreatedAt:     now,
		}
	}

	if err := s.chequeRepo.CreateBatch(ctx, session.QuotationID, cheques); err != nil {
		s.logger.Error("Failed to persist cheque details",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save cheque details: %w", err)
	}

	session.Submitted = true
	session.Generation++
	session.Queue = nil

	s.notifier.Notify(notify.Notice{
		Severity: notify.SeveritySuccess,
		Message:  "Cheque details submitted.",
	})

	s.logger.Info("Cheque batch submitted",
		zap.String("session_id", sessionID.String()),
		zap.String("quotation_id", session.QuotationID.String()),
		zap.Int("cheques", len(cheques)),
	)

	return &SubmitResult{
		Cheques:         cheques,
		BankAccountID:   account.ID,
		BankAccountName: account.AccountName,
		BankName:        account.BankName,
	}, nil
}
