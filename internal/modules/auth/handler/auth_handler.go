package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"cxls/internal/app/middleware"
	"cxls/internal/modules/auth/dto"
	"cxls/internal/modules/auth/usecase"
	"cxls/pkg/logger"
	"cxls/pkg/response"
	"cxls/pkg/validation"
)

var validate = validator.New()

type AuthHandler struct {
	usecase *usecase.AuthUsecase
}

func NewAuthHandler(u *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{usecase: u}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AuthHandler.Register.Parser", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", errMsg)
	}
	if err := validate.Struct(&req); err != nil {
		errMsg := validation.ErrorMessage(err)
		logger.WriteLogToFile("failed", "AuthHandler.Register.Validate", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", errMsg)
	}

	user, token, err := h.usecase.Register(c.Context(), req.Username, req.Password, req.Display, req.Contact)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AuthHandler.Register.Usecase", req.Username, &errMsg)
		return response.WriteLedgerError(c, "Failed to register", err)
	}

	logger.WriteLogToFile("success", "AuthHandler.Register", req.Username, nil)
	return response.WriteSuccess(c, fiber.StatusCreated, "Registered", dto.AuthOutput{
		UserID:   string(user.ID),
		Username: user.Username,
		Role:     string(user.Role),
		Token:    token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginInput
	if err := c.BodyParser(&req); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AuthHandler.Login.Parser", nil, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", errMsg)
	}
	if err := validate.Struct(&req); err != nil {
		errMsg := validation.ErrorMessage(err)
		logger.WriteLogToFile("failed", "AuthHandler.Login.Validate", req.Username, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", errMsg)
	}

	user, token, err := h.usecase.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "AuthHandler.Login.Usecase", req.Username, &errMsg)
		return response.WriteLedgerError(c, "Failed to login", err)
	}

	logger.WriteLogToFile("success", "AuthHandler.Login", req.Username, nil)
	return response.WriteSuccess(c, fiber.StatusOK, "Logged in", dto.AuthOutput{
		UserID:   string(user.ID),
		Username: user.Username,
		Role:     string(user.Role),
		Token:    token,
	})
}

// Me returns the authenticated caller's profile. The credential hash
// stays server-side.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	items := make([]string, len(caller.Items))
	for i, id := range caller.Items {
		items[i] = string(id)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "OK", dto.ProfileOutput{
		UserID:    string(caller.ID),
		Username:  caller.Username,
		Display:   caller.Display,
		Contact:   caller.Contact,
		Role:      string(caller.Role),
		Balance:   caller.Balance.String(),
		Items:     items,
		GiftCount: caller.GiftCount,
		Banned:    caller.Banned,
	})
}
