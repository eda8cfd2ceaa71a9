package model

// VideoStatus tracks a video through the processing pipeline.
// Status only moves forward; the single backward edge is to
// StatusProcessingFailed, which is terminal.
type VideoStatus string

const (
	StatusUploaded           VideoStatus = "uploaded"
	StatusCreatedMetadata    VideoStatus = "created_metadata"
	StatusProcessing         VideoStatus = "processing"
	StatusProcessingFailed   VideoStatus = "processing_failed"
	StatusProcessingFinished VideoStatus = "processing_finished"
	StatusPublished          VideoStatus = "published"
)

var ValidStatuses = []VideoStatus{
	StatusUploaded, StatusCreatedMetadata, StatusProcessing,
	StatusProcessingFailed, StatusProcessingFinished, StatusPublished,
}

// Location is one of the three lifecycle directories a workspace lives in.
type Location string

const (
	LocationWorking    Location = "working"
	LocationTemporary  Location = "temporary"
	LocationRepository Location = "repository"
)

// WorkFileType identifies what a file inside a workspace is.
type WorkFileType string

const (
	WorkFileOriginal WorkFileType = "original"
	WorkFilePoster   WorkFileType = "poster"
	// Rendition types reserved for transcoded outputs.
	WorkFileRendition720  WorkFileType = "rendition_720"
	WorkFileRendition1080 WorkFileType = "rendition_1080"
)

// TaskKind enumerates the background task variants.
type TaskKind string

const (
	TaskProcessVideo                TaskKind = "process_video"
	TaskPublishVideo                TaskKind = "publish_video"
	TaskDeleteVideo                 TaskKind = "delete_video"
	TaskIncrementViewCount          TaskKind = "increment_view_count"
	TaskGenerateUploadNotifications TaskKind = "generate_upload_notifications"
	TaskSendConfirmationEmail       TaskKind = "send_confirmation_email"
)
