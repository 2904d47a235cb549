package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"cxls/internal/app/middleware"
	"cxls/internal/domain"
	"cxls/internal/ledger"
	"cxls/internal/modules/notify/dto"
	"cxls/internal/notifier"
	"cxls/pkg/logger"
	"cxls/pkg/response"
	"cxls/pkg/validation"
)

var validate = validator.New()

type NotifyHandler struct {
	led *ledger.Ledger
	hub *notifier.Hub
}

func NewNotifyHandler(led *ledger.Ledger, hub *notifier.Hub) *NotifyHandler {
	return &NotifyHandler{led: led, hub: hub}
}

func (h *NotifyHandler) List(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	limit := c.QueryInt("limit", 50)
	items := h.led.Notifications(caller.ID, limit)
	out := make([]dto.NotificationOutput, len(items))
	for i, n := range items {
		out[i] = dto.NotificationOutput{
			ID:        string(n.ID),
			Type:      n.Type,
			Payload:   n.Payload,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	return response.WriteSuccess(c, fiber.StatusOK, "OK", out)
}

func (h *NotifyHandler) MarkRead(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	var req dto.MarkReadInput
	if err := c.BodyParser(&req); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "NotifyHandler.MarkRead.Parser", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Invalid request body", errMsg)
	}
	if err := validate.Struct(&req); err != nil {
		errMsg := validation.ErrorMessage(err)
		logger.WriteLogToFile("failed", "NotifyHandler.MarkRead.Validate", req, &errMsg)
		return response.WriteError(c, fiber.StatusBadRequest, "Validation error", errMsg)
	}

	ids := make([]domain.NotificationID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = domain.NotificationID(id)
	}
	if err := h.led.MarkRead(c.Context(), caller.ID, ids); err != nil {
		errMsg := err.Error()
		logger.WriteLogToFile("failed", "NotifyHandler.MarkRead", req, &errMsg)
		return response.WriteLedgerError(c, "Failed to mark notifications read", err)
	}
	return response.WriteSuccess(c, fiber.StatusOK, "Marked read", nil)
}

// Events streams live notifications and broadcasts over SSE until the
// client disconnects.
func (h *NotifyHandler) Events(c *fiber.Ctx) error {
	caller := middleware.Caller(c)
	sess := h.hub.Subscribe(caller.ID)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unsubscribe(sess)
		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()
		for {
			select {
			case ev, ok := <-sess.Events():
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepalive.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
