package handler

import (
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/middleware"
	"github.com/clipshare/api/internal/model"
	"github.com/clipshare/api/internal/service"
	"github.com/clipshare/api/pkg/response"
)

const maxUploadSize = 500 * 1024 * 1024 // 500MB

type VideoHandler struct {
	service   *service.VideoService
	validator *validator.Validate
}

func NewVideoHandler(svc *service.VideoService, v *validator.Validate) *VideoHandler {
	return &VideoHandler{
		service:   svc,
		validator: v,
	}
}

// Upload handles POST /api/videos
func (h *VideoHandler) Upload(c *fiber.Ctx) error {
	title := c.FormValue("title")
	if title == "" {
		return response.ValidationError(c, "title is required", nil)
	}

	description := c.FormValue("description")
	unlisted := c.FormValue("unlisted") == "true"

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > maxUploadSize {
		return response.ValidationError(c, "File size exceeds 500MB limit", map[string]interface{}{
			"maxSize":  maxUploadSize,
			"fileSize": file.Size,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return response.ServiceError(c, "Failed to read file")
	}

	userID := middleware.GetUserID(c)
	result, err := h.service.Upload(c.Context(), userID, title, description, unlisted, file.Filename, data)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			return response.ValidationError(c, "Uploaded file is not a supported video", map[string]interface{}{
				"reason": err.Error(),
			})
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, result)
}

// Get handles GET /api/videos/:videoId
func (h *VideoHandler) Get(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return response.ValidationError(c, "Video ID is required", nil)
	}

	video, err := h.service.Get(c.Context(), videoID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return response.NotFound(c, "Video not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, video)
}

// List handles GET /api/videos
func (h *VideoHandler) List(c *fiber.Ctx) error {
	videos, err := h.service.List(c.Context())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, videos)
}

// ListMine handles GET /api/videos/mine
func (h *VideoHandler) ListMine(c *fiber.Ctx) error {
	videos, err := h.service.ListByCreator(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, videos)
}

// Update handles PATCH /api/videos/:videoId
func (h *VideoHandler) Update(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return response.ValidationError(c, "Video ID is required", nil)
	}

	var req model.UpdateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	video, err := h.service.UpdateMetadata(c.Context(), middleware.GetUserID(c), videoID, &req)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return response.NotFound(c, "Video not found")
		case errors.Is(err, service.ErrNotOwner):
			return response.Forbidden(c, "Not the video owner")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, video)
}

// Publish handles POST /api/videos/:videoId/publish
func (h *VideoHandler) Publish(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return response.ValidationError(c, "Video ID is required", nil)
	}

	result, err := h.service.Publish(c.Context(), middleware.GetUserID(c), videoID)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return response.NotFound(c, "Video not found")
		case errors.Is(err, service.ErrNotOwner):
			return response.Forbidden(c, "Not the video owner")
		case errors.Is(err, service.ErrNotPublishable):
			return response.ProcessingError(c, "Video has not finished processing")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Delete handles DELETE /api/videos/:videoId
func (h *VideoHandler) Delete(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return response.ValidationError(c, "Video ID is required", nil)
	}

	if err := h.service.Delete(c.Context(), middleware.GetUserID(c), videoID); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return response.NotFound(c, "Video not found")
		case errors.Is(err, service.ErrNotOwner):
			return response.Forbidden(c, "Not the video owner")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, fiber.Map{"id": videoID})
}

// Watch handles POST /api/videos/:videoId/watch
func (h *VideoHandler) Watch(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return response.ValidationError(c, "Video ID is required", nil)
	}

	if err := h.service.Watch(c.Context(), videoID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return response.NotFound(c, "Video not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
