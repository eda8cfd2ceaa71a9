package model

import "time"

// Video is the externally visible entity. The background engine mutates only
// Status and ViewCount; everything else belongs to the API layer.
type Video struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	CreatorID   string        `json:"creatorId"`
	WorkspaceID string        `json:"workspaceId"`
	Status      VideoStatus   `json:"status"`
	Unlisted    bool          `json:"unlisted"`
	ViewCount   int64         `json:"viewCount"`
	Sources     []VideoSource `json:"sources,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// VideoSource points at a playable or displayable artifact for a video,
// e.g. the poster image or the original file on object storage.
type VideoSource struct {
	Type WorkFileType `json:"type"`
	URL  string       `json:"url"`
}

// WatchLink returns the client-facing link for a video, used as the
// redirect target in subscriber notifications. IDs are UUID strings and
// already URL-safe.
func (v *Video) WatchLink() string {
	return "/watch/" + v.ID
}
