package handlers

import (
	"errors"
	"io"
	"strconv"

	"tenant-onboarding-backend/internal/dto"
	"tenant-onboarding-backend/internal/models"
	"tenant-onboarding-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OnboardingHandler struct {
	ingestion *service.IngestionService
	logger    *zap.Logger
}

func NewOnboardingHandler(ingestion *service.IngestionService, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		ingestion: ingestion,
		logger:    logger,
	}
}

// CreateSession opens the cheque upload step for a quotation.
func (h *OnboardingHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	quotationID, err := uuid.Parse(req.QuotationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quotation ID",
		})
	}

	session, err := h.ingestion.StartSession(c.Context(), quotationID)
	if err != nil {
		if errors.Is(err, service.ErrQuotationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quotation not found",
			})
		}
		h.logger.Error("Failed to start ingestion session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(h.sessionView(session.ID))
}

// GetSession returns the current queue, records and phase.
func (h *OnboardingHandler) GetSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	if _, err := h.ingestion.GetSession(sessionID); err != nil {
		return h.mapSessionError(c, err)
	}

	return c.JSON(h.sessionView(sessionID))
}

// AddImages appends multipart files to the upload queue, up to the batch cap.
func (h *OnboardingHandler) AddImages(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Multipart form is required",
		})
	}

	files := form.File["images"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one image file is required",
		})
	}

	images := make([]models.UploadedImage, 0, len(files))
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to open uploaded file",
			})
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to read uploaded file",
			})
		}
		images = append(images, models.UploadedImage{
			FileName: file.Filename,
			Size:     file.Size,
			Data:     data,
		})
	}

	added, dropped, err := h.ingestion.AddImages(sessionID, images)
	if err != nil {
		return h.mapSessionError(c, err)
	}

	return c.JSON(dto.AddImagesResponse{
		Added:   added,
		Dropped: dropped,
		Session: h.sessionView(sessionID),
	})
}

// RemoveImage removes one queued file by position.
func (h *OnboardingHandler) RemoveImage(c *fiber.Ctx) error {
	sessionID, index, err := h.parseSessionIndex(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.ingestion.RemoveImage(sessionID, index); err != nil {
		return h.mapSessionError(c, err)
	}

	return c.JSON(h.sessionView(sessionID))
}

// Process runs extraction on the queued images.
func (h *OnboardingHandler) Process(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	notice, err := h.ingestion.Process(c.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoImages):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": service.ErrNoImages.Error(),
			})
		case errors.Is(err, service.ErrProcessingInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Extraction is already running for this session",
			})
		case errors.Is(err, service.ErrStaleResult):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "The step has moved on, result discarded",
			})
		default:
			return h.mapSessionError(c, err)
		}
	}

	return c.JSON(dto.ProcessResponse{
		Notice:  notice,
		Session: h.sessionView(sessionID),
	})
}

// UpdateRecord toggles edit mode or overwrites one field of one record.
func (h *OnboardingHandler) UpdateRecord(c *fiber.Ctx) error {
	sessionID, index, err := h.parseSessionIndex(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var req dto.UpdateRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	switch req.Action {
	case "toggle_edit":
		err = h.ingestion.ToggleEdit(sessionID, index)
	case "update":
		if req.Field == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Field is required for update",
			})
		}
		err = h.ingestion.UpdateField(sessionID, index, req.Field, req.Value)
	}
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) ||
			errors.Is(err, service.ErrSessionSubmitted) ||
			errors.Is(err, service.ErrIndexOutOfRange) {
			return h.mapSessionError(c, err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(h.sessionView(sessionID))
}

// RemoveRecord deletes one record and its paired source image.
func (h *OnboardingHandler) RemoveRecord(c *fiber.Ctx) error {
	sessionID, index, err := h.parseSessionIndex(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.ingestion.RemoveRecord(sessionID, index); err != nil {
		return h.mapSessionError(c, err)
	}

	return c.JSON(h.sessionView(sessionID))
}

// Submit validates the record set and hands the finalized cheques to the
// parent wizard.
func (h *OnboardingHandler) Submit(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.ingestion.Submit(c.Context(), sessionID, req.BankAccountID)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse{
				Errors: validationErr.Messages,
			})
		}
		if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSessionSubmitted) {
			return h.mapSessionError(c, err)
		}
		h.logger.Error("Submission failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit cheque details",
		})
	}

	resp := dto.SubmitResponse{
		ChequeDetails:   make([]dto.SubmittedChequeResponse, 0, len(result.Cheques)),
		BankAccountID:   result.BankAccountID.String(),
		BankAccountName: result.BankAccountName,
		BankName:        result.BankName,
	}
	for _, cheque := range result.Cheques {
		resp.ChequeDetails = append(resp.ChequeDetails, dto.SubmittedChequeResponseFrom(cheque))
	}

	return c.JSON(resp)
}

// Reset discards all records and files, back to the uploading phase.
func (h *OnboardingHandler) Reset(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid session ID",
		})
	}

	if err := h.ingestion.Reset(sessionID); err != nil {
		return h.mapSessionError(c, err)
	}

	return c.JSON(h.sessionView(sessionID))
}

func (h *OnboardingHandler) parseSessionIndex(c *fiber.Ctx) (uuid.UUID, int, error) {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, 0, errors.New("invalid session ID")
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return uuid.Nil, 0, errors.New("invalid index")
	}
	return sessionID, index, nil
}

func (h *OnboardingHandler) sessionView(sessionID uuid.UUID) dto.SessionResponse {
	session, err := h.ingestion.GetSession(sessionID)
	if err != nil {
		return dto.SessionResponse{ID: sessionID.String()}
	}
	session.Lock()
	defer session.Unlock()
	return dto.SessionResponseFrom(session)
}

func (h *OnboardingHandler) mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found or expired",
		})
	case errors.Is(err, service.ErrSessionSubmitted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Session already submitted",
		})
	case errors.Is(err, service.ErrIndexOutOfRange):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Index out of range",
		})
	default:
		h.logger.Error("Session operation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal error",
		})
	}
}
