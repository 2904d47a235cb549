package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"cxls/internal/app/middleware"
	"cxls/internal/domain"
	"cxls/internal/ledger"
	"cxls/internal/modules/market/dto"
	"cxls/pkg/logger"
	"cxls/pkg/response"
	"cxls/pkg/validation"
)

var validate = validator.New()

type MarketHandler struct {
	led *ledger.Ledger
}

func NewMarketHandler(led *ledger.Ledger) *MarketHandler {
	return &MarketHandler{led: led}
}

func (h *MarketHandler) ListItems(c *fiber.Ctx) error {
	items := h.led.ListItems()
	out := make([]dto.ItemOutput, len(items))
	for i, it := range items {
		out[i] = itemOutput(it)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "OK", out)
}

func (h *MarketHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.led.GetItem(domain.ItemID(c.Params("id")))
	if err != nil {
		return response.WriteLedgerError(c, "Item not found", err)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "OK", itemOutput(item))
}

func (h *MarketHandler) Buy(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	itemID := domain.ItemID(c.Params("id"))

	item, err := h.led.Buy(c.Context(), caller.ID, itemID)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "MarketHandler.Buy", map[string]any{
			"user_id": caller.ID,
			"item_id": itemID,
		}, &errMsg)
		return response.WriteLedgerError(c, "Failed to buy item", err)
	}

	logger.WriteLogToFile("success", "MarketHandler.Buy", map[string]any{
		"user_id": caller.ID,
		"item_id": itemID,
	}, nil)
	return response.WriteSuccess(c, fiber.StatusOK, "Item purchased", itemOutput(item))
}

func (h *MarketHandler) Gift(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	itemID := domain.ItemID(c.Params("id"))

	var req dto.GiftInput
	if err := c.BodyParser(&req); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "MarketHandler.Gift.Parser", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", errMsg)
	}
	if err := validate.Struct(&req); err != nil {
		errMsg := validation.ErrorMessage(err)
		logger.WriteLogToFile("failed", "MarketHandler.Gift.Validate", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", errMsg)
	}

	item, err := h.led.Gift(c.Context(), caller.ID, domain.UserID(req.ToUserID), itemID)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "MarketHandler.Gift", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to gift item", err)
	}

	logger.WriteLogToFile("success", "MarketHandler.Gift", req, nil)
	return response.WriteSuccess(c, fiber.StatusOK, "Item gifted", itemOutput(item))
}

func (h *MarketHandler) Upgrade(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	itemID := domain.ItemID(c.Params("id"))

	item, err := h.led.Upgrade(c.Context(), caller.ID, itemID)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "MarketHandler.Upgrade", map[string]any{
			"user_id": caller.ID,
			"item_id": itemID,
		}, &errMsg)
		return response.WriteLedgerError(c, "Failed to upgrade item", err)
	}

	return response.WriteSuccess(c, fiber.StatusOK, "Item upgraded", itemOutput(item))
}

func itemOutput(it *domain.Item) dto.ItemOutput {
	out := dto.ItemOutput{
		ID:         string(it.ID),
		Name:       it.Name,
		Image:      it.Image,
		Collection: it.Collection,
		Rating:     it.Rating,
		Price:      it.Price.String(),
		Stars:      it.Stars,
		Level:      it.Level,
		CreatedAt:  it.CreatedAt.Format(time.RFC3339),
	}
	if it.Owner != nil {
		out.Owner = string(*it.Owner)
	}
	return out
}
