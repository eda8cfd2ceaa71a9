package model

import "time"

// UploadVideoResponse is returned after a successful upload. Processing runs
// asynchronously; the client polls the video status or subscribes to the
// status websocket.
type UploadVideoResponse struct {
	ID        string      `json:"id"`
	Status    VideoStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UpdateVideoRequest carries the mutable metadata fields.
type UpdateVideoRequest struct {
	Title       string `json:"title" validate:"omitempty,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Unlisted    *bool  `json:"unlisted"`
}

// PublishVideoResponse acknowledges that the publish task was queued.
type PublishVideoResponse struct {
	ID     string      `json:"id"`
	Status VideoStatus `json:"status"`
}

// AddCommentRequest creates a comment on a video.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// SubscriptionResponse reports the result of a subscribe or unsubscribe.
// Success is derived from the repository operation itself, never from a
// message field.
type SubscriptionResponse struct {
	CreatorID  string `json:"creatorId"`
	Subscribed bool   `json:"subscribed"`
}
