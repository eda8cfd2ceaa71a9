package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clipshare/api/internal/middleware"
	"github.com/clipshare/api/internal/model"
	"github.com/clipshare/api/internal/service"
	"github.com/clipshare/api/pkg/response"
)

type AccountHandler struct {
	queue service.TaskQueue
}

func NewAccountHandler(queue service.TaskQueue) *AccountHandler {
	return &AccountHandler{queue: queue}
}

// RequestConfirmation handles POST /api/account/confirmation. The email is
// sent by a background task; the request only acknowledges the queueing.
func (h *AccountHandler) RequestConfirmation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	email := middleware.GetUserEmail(c)
	if email == "" {
		return response.ValidationError(c, "Token carries no email address", nil)
	}

	h.queue.Enqueue(model.SendConfirmationEmail{UserID: userID, Email: email})

	return response.Accepted(c, fiber.Map{"email": email})
}
