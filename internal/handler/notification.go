package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/middleware"
	"github.com/clipshare/api/internal/service"
	"github.com/clipshare/api/pkg/response"
)

type NotificationHandler struct {
	service *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	notifications, err := h.service.ListForUser(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, notifications)
}

// Dismiss handles DELETE /api/notifications/:notificationId
func (h *NotificationHandler) Dismiss(c *fiber.Ctx) error {
	notificationID := c.Params("notificationId")
	if notificationID == "" {
		return response.ValidationError(c, "Notification ID is required", nil)
	}

	if err := h.service.Dismiss(c.Context(), middleware.GetUserID(c), notificationID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}
