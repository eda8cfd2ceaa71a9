package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clipshare/api/internal/middleware"
	"github.com/clipshare/api/internal/model"
	"github.com/clipshare/api/internal/repository"
	"github.com/clipshare/api/pkg/response"
)

type SubscriptionHandler struct {
	subscriptions *repository.SubscriptionRepository
}

func NewSubscriptionHandler(subs *repository.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subs}
}

// Subscribe handles PUT /api/subscriptions/:creatorId. The response status
// code is the ground truth for success; the body only echoes the new state.
func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	creatorID := c.Params("creatorId")
	if creatorID == "" {
		return response.ValidationError(c, "Creator ID is required", nil)
	}

	userID := middleware.GetUserID(c)
	if userID == creatorID {
		return response.ValidationError(c, "Cannot subscribe to yourself", nil)
	}

	if err := h.subscriptions.Subscribe(c.Context(), userID, creatorID); err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.SubscriptionResponse{CreatorID: creatorID, Subscribed: true})
}

// Unsubscribe handles DELETE /api/subscriptions/:creatorId
func (h *SubscriptionHandler) Unsubscribe(c *fiber.Ctx) error {
	creatorID := c.Params("creatorId")
	if creatorID == "" {
		return response.ValidationError(c, "Creator ID is required", nil)
	}

	if err := h.subscriptions.Unsubscribe(c.Context(), middleware.GetUserID(c), creatorID); err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.SubscriptionResponse{CreatorID: creatorID, Subscribed: false})
}

// List handles GET /api/subscriptions
func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	creators, err := h.subscriptions.Subscriptions(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"creators": creators})
}

// Status handles GET /api/subscriptions/:creatorId
func (h *SubscriptionHandler) Status(c *fiber.Ctx) error {
	creatorID := c.Params("creatorId")
	if creatorID == "" {
		return response.ValidationError(c, "Creator ID is required", nil)
	}

	subscribed, err := h.subscriptions.IsSubscribed(c.Context(), middleware.GetUserID(c), creatorID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.SubscriptionResponse{CreatorID: creatorID, Subscribed: subscribed})
}
