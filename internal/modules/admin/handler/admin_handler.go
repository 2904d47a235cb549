package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"cxls/internal/app/middleware"
	"cxls/internal/domain"
	"cxls/internal/ledger"
	"cxls/internal/modules/admin/dto"
	"cxls/pkg/logger"
	"cxls/pkg/response"
	"cxls/pkg/validation"
)

var validate = validator.New()

type AdminHandler struct {
	led *ledger.Ledger
}

func NewAdminHandler(led *ledger.Ledger) *AdminHandler {
	return &AdminHandler{led: led}
}

func (h *AdminHandler) parseItem(c *fiber.Ctx) (*ledger.ItemParams, error) {
	var req dto.ItemInput
	if err := c.BodyParser(&req); err != nil {
		return nil, ledger.Validationf("invalid request body: %v", err)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, ledger.Validationf("%s", validation.ErrorMessage(err))
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, ledger.Validationf("price must be a number")
	}
	return &ledger.ItemParams{
		Name:       req.Name,
		Image:      req.Image,
		Collection: req.Collection,
		Rating:     req.Rating,
		Price:      price,
		Stars:      req.Stars,
	}, nil
}

func (h *AdminHandler) CreateItem(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	params, err := h.parseItem(c)
	if err != nil {
		return response.WriteLedgerError(c, "Invalid item", err)
	}
	item, err := h.led.CreateItem(c.Context(), caller.ID, *params)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AdminHandler.CreateItem", params.Name, &errMsg)
		return response.WriteLedgerError(c, "Failed to create item", err)
	}
	logger.WriteLogToFile("success", "AdminHandler.CreateItem", params.Name, nil)
	return response.WriteSuccess(c, fiber.StatusCreated, "Item created", item)
}

func (h *AdminHandler) UpdateItem(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	params, err := h.parseItem(c)
	if err != nil {
		return response.WriteLedgerError(c, "Invalid item", err)
	}
	item, err := h.led.UpdateItem(c.Context(), caller.ID, domain.ItemID(c.Params("id")), *params)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AdminHandler.UpdateItem", params.Name, &errMsg)
		return response.WriteLedgerError(c, "Failed to update item", err)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "Item updated", item)
}

// Gift assigns an unsold item to a user; the recipient is debited.
func (h *AdminHandler) Gift(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	var req dto.GiftInput
	if err := c.BodyParser(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", validation.ErrorMessage(err))
	}
	item, err := h.led.AdminGift(c.Context(), caller.ID, domain.UserID(req.ToUserID), domain.ItemID(c.Params("id")))
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AdminHandler.Gift", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to gift item", err)
	}
	logger.WriteLogToFile("success", "AdminHandler.Gift", req, nil)
	return response.WriteSuccess(c, fiber.StatusOK, "Item gifted", item)
}

func (h *AdminHandler) Transfer(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	var req dto.TransferInput
	if err := c.BodyParser(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", validation.ErrorMessage(err))
	}
	item, err := h.led.Transfer(c.Context(), caller.ID, domain.ItemID(c.Params("id")), domain.UserID(req.ToUserID))
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AdminHandler.Transfer", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to transfer item", err)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "Item transferred", item)
}

func (h *AdminHandler) Burn(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	itemID := domain.ItemID(c.Params("id"))
	if err := h.led.Burn(c.Context(), caller.ID, itemID); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AdminHandler.Burn", itemID, &errMsg)
		return response.WriteLedgerError(c, "Failed to burn item", err)
	}
	logger.WriteLogToFile("success", "AdminHandler.Burn", itemID, nil)
	return response.WriteSuccess(c, fiber.StatusOK, "Item burned", nil)
}

func (h *AdminHandler) Adjust(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	var req dto.AdjustInput
	if err := c.BodyParser(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", validation.ErrorMessage(err))
	}
	delta, err := decimal.NewFromString(req.Delta)
	if err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", "delta must be a number")
	}
	user, err := h.led.AdjustBalance(c.Context(), caller.ID, domain.UserID(req.UserID), delta)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AdminHandler.Adjust", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to adjust balance", err)
	}
	logger.WriteLogToFile("success", "AdminHandler.Adjust", req, nil)
	return response.WriteSuccess(c, fiber.StatusOK, "Balance adjusted", fiber.Map{
		"user_id": user.ID,
		"balance": user.Balance.String(),
	})
}

func (h *AdminHandler) Ban(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	var req dto.BanInput
	if err := c.BodyParser(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", validation.ErrorMessage(err))
	}
	if err := h.led.SetBan(c.Context(), caller.ID, domain.UserID(req.UserID), req.Banned); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AdminHandler.Ban", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to update ban flag", err)
	}
	logger.WriteLogToFile("success", "AdminHandler.Ban", req, nil)
	return response.WriteSuccess(c, fiber.StatusOK, "Ban flag updated", nil)
}

func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	payments, err := h.led.ListPayments(caller.ID)
	if err != nil {
		return response.WriteLedgerError(c, "Failed to list payments", err)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "OK", payments)
}

func (h *AdminHandler) ResolvePayment(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	var req dto.ResolveInput
	if err := c.BodyParser(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", validation.ErrorMessage(err))
	}
	p, err := h.led.ResolvePayment(c.Context(), caller.ID, domain.PaymentID(c.Params("id")), req.Approve, req.Note)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AdminHandler.ResolvePayment", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to resolve payment", err)
	}
	logger.WriteLogToFile("success", "AdminHandler.ResolvePayment", map[string]any{
		"payment_id": p.ID,
		"status":     p.Status,
		"resolved":   time.Now().Format(time.RFC3339),
	}, nil)
	return response.WriteSuccess(c, fiber.StatusOK, "Payment resolved", p)
}
