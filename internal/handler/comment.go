package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/middleware"
	"github.com/clipshare/api/internal/model"
	"github.com/clipshare/api/internal/service"
	"github.com/clipshare/api/pkg/response"
)

type CommentHandler struct {
	service   *service.CommentService
	validator *validator.Validate
}

func NewCommentHandler(svc *service.CommentService, v *validator.Validate) *CommentHandler {
	return &CommentHandler{
		service:   svc,
		validator: v,
	}
}

// Add handles POST /api/videos/:videoId/comments
func (h *CommentHandler) Add(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return response.ValidationError(c, "Video ID is required", nil)
	}

	var req model.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	comment, err := h.service.Add(c.Context(), videoID, middleware.GetUserID(c), req.Text)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return response.NotFound(c, "Video not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, comment)
}

// List handles GET /api/videos/:videoId/comments
func (h *CommentHandler) List(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return response.ValidationError(c, "Video ID is required", nil)
	}

	comments, err := h.service.ListForVideo(c.Context(), videoID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, comments)
}

// Delete handles DELETE /api/videos/:videoId/comments/:commentId
func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	commentID := c.Params("commentId")
	if videoID == "" || commentID == "" {
		return response.ValidationError(c, "Video ID and comment ID are required", nil)
	}

	if err := h.service.Delete(c.Context(), middleware.GetUserID(c), videoID, commentID); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return response.NotFound(c, "Comment not found")
		case errors.Is(err, service.ErrNotOwner):
			return response.Forbidden(c, "Not the comment author")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}
