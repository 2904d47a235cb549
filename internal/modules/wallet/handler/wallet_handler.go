package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"cxls/internal/app/middleware"
	"cxls/internal/domain"
	"cxls/internal/ledger"
	"cxls/internal/modules/wallet/dto"
	"cxls/pkg/logger"
	"cxls/pkg/response"
	"cxls/pkg/validation"
)

var validate = validator.New()

type WalletHandler struct {
	led *ledger.Ledger
}

func NewWalletHandler(led *ledger.Ledger) *WalletHandler {
	return &WalletHandler{led: led}
}

func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	caller := middleware.Caller(c)

	var req dto.DepositInput
	if err := c.BodyParser(&req); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "WalletHandler.Deposit.Parser", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", errMsg)
	}
	if err := validate.Struct(&req); err != nil {
		errMsg := validation.ErrorMessage(err)
		logger.WriteLogToFile("failed", "WalletHandler.Deposit.Validate", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", errMsg)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", "amount must be a number")
	}

	p, err := h.led.RequestDeposit(c.Context(), caller.ID, amount)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "WalletHandler.Deposit.Ledger", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to request deposit", err)
	}

	logger.WriteLogToFile("success", "WalletHandler.Deposit", req, nil)
	return response.WriteSuccess(c, fiber.StatusCreated, "Deposit requested", paymentOutput(p))
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	caller := middleware.Caller(c)

	var req dto.WithdrawInput
	if err := c.BodyParser(&req); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "WalletHandler.Withdraw.Parser", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", errMsg)
	}
	if err := validate.Struct(&req); err != nil {
		errMsg := validation.ErrorMessage(err)
		logger.WriteLogToFile("failed", "WalletHandler.Withdraw.Validate", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", errMsg)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", "amount must be a number")
	}

	p, err := h.led.RequestWithdraw(c.Context(), caller.ID, amount, req.Address)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "WalletHandler.Withdraw.Ledger", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to request withdrawal", err)
	}

	logger.WriteLogToFile("success", "WalletHandler.Withdraw", req, nil)
	return response.WriteSuccess(c, fiber.StatusCreated, "Withdrawal requested, funds held", paymentOutput(p))
}

func (h *WalletHandler) Balance(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	// re-read: the middleware copy may predate a concurrent mutation
	user, err := h.led.GetUser(caller.ID)
	if err != nil {
		return response.WriteLedgerError(c, "User not found", err)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "OK", dto.BalanceOutput{Balance: user.Balance.String()})
}

func (h *WalletHandler) Payments(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	payments := h.led.PaymentsFor(caller.ID)
	out := make([]dto.PaymentOutput, len(payments))
	for i, p := range payments {
		out[i] = paymentOutput(p)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "OK", out)
}

func (h *WalletHandler) History(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	limit := c.QueryInt("limit", 50)
	entries := h.led.HistoryFor(caller.ID, limit)
	out := make([]dto.HistoryOutput, len(entries))
	for i, e := range entries {
		out[i] = dto.HistoryOutput{Text: e.Text, CreatedAt: e.CreatedAt.Format(time.RFC3339)}
	}
	return response.WriteSuccess(c, fiber.StatusOK, "OK", out)
}

func paymentOutput(p *domain.Payment) dto.PaymentOutput {
	return dto.PaymentOutput{
		ID:        string(p.ID),
		Kind:      string(p.Kind),
		Amount:    p.Amount.String(),
		FiatValue: p.FiatValue.String(),
		Address:   p.Address,
		Status:    string(p.Status),
		Note:      p.Note,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
