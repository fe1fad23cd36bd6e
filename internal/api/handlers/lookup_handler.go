package handlers

import (
	"tenant-onboarding-backend/internal/dto"
	"tenant-onboarding-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LookupHandler serves the read-only reference data the onboarding wizard
// renders: pay-to bank accounts, quotation context and submitted cheques.
type LookupHandler struct {
	accountRepo   *repository.BankAccountRepository
	quotationRepo *repository.QuotationRepository
	chequeRepo    *repository.ChequeRepository
	logger        *zap.Logger
}

func NewLookupHandler(
	accountRepo *repository.BankAccountRepository,
	quotationRepo *repository.QuotationRepository,
	chequeRepo *repository.ChequeRepository,
	logger *zap.Logger,
) *LookupHandler {
	return &LookupHandler{
		accountRepo:   accountRepo,
		quotationRepo: quotationRepo,
		chequeRepo:    chequeRepo,
		logger:        logger,
	}
}

func (h *LookupHandler) ListBankAccounts(c *fiber.Ctx) error {
	accounts, err := h.accountRepo.List(c.Context())
	if err != nil {
		h.logger.Error("Failed to list bank accounts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list bank accounts",
		})
	}

	resp := make([]dto.BankAccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, dto.BankAccountResponseFrom(acc))
	}

	return c.JSON(resp)
}

func (h *LookupHandler) GetQuotation(c *fiber.Ctx) error {
	quotationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quotation ID",
		})
	}

	quotation, err := h.quotationRepo.GetByID(c.Context(), quotationID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quotation not found",
			})
		}
		h.logger.Error("Failed to get quotation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get quotation",
		})
	}

	return c.JSON(dto.QuotationResponseFrom(quotation))
}

func (h *LookupHandler) ListQuotationCheques(c *fiber.Ctx) error {
	quotationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quotation ID",
		})
	}

	cheques, err := h.chequeRepo.ListByQuotationID(c.Context(), quotationID)
	if err != nil {
		h.logger.Error("Failed to list cheques", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list cheques",
		})
	}

	resp := make([]dto.SubmittedChequeResponse, 0, len(cheques))
	for _, cheque := range cheques {
		resp = append(resp, dto.SubmittedChequeResponseFrom(cheque))
	}

	return c.JSON(resp)
}
