package model

// Task is a unit of background work. Tasks are transient: they live only in
// process memory between Enqueue and dispatch, are consumed exactly once and
// are lost on crash. Variants form a closed set; dispatch happens with an
// exhaustive type switch in the worker scope.
type Task interface {
	Kind() TaskKind
}

// ProcessVideo validates the uploaded original, derives the poster frame and
// promotes the workspace to the permanent repository.
type ProcessVideo struct {
	VideoID     string
	WorkspaceID string
}

func (ProcessVideo) Kind() TaskKind { return TaskProcessVideo }

// PublishVideo transitions a fully processed video to published and fans out
// subscriber notifications.
type PublishVideo struct {
	VideoID string
}

func (PublishVideo) Kind() TaskKind { return TaskPublishVideo }

// DeleteVideo removes the video record and its workspace.
type DeleteVideo struct {
	VideoID     string
	WorkspaceID string
}

func (DeleteVideo) Kind() TaskKind { return TaskDeleteVideo }

// IncrementViewCount applies an accumulated view delta to a video.
type IncrementViewCount struct {
	VideoID string
	Count   int64
}

func (IncrementViewCount) Kind() TaskKind { return TaskIncrementViewCount }

// GenerateUploadNotifications materializes one notification per subscriber
// of the video's creator.
type GenerateUploadNotifications struct {
	VideoID string
}

func (GenerateUploadNotifications) Kind() TaskKind { return TaskGenerateUploadNotifications }

// SendConfirmationEmail asks the mailer service to send an account
// confirmation message.
type SendConfirmationEmail struct {
	UserID string
	Email  string
}

func (SendConfirmationEmail) Kind() TaskKind { return TaskSendConfirmationEmail }
