// Package media gatekeeps uploaded video files and derives artifacts
// (currently the poster frame) using an external ffmpeg toolchain.
package media

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/model"
)

// Validation bounds for uploaded media.
const (
	minDuration   = 10.0 // seconds
	minProbeScore = 80   // scores <= this are rejected
	minWidth      = 640
	minHeight     = 360
	maxWidth      = 1920
	maxHeight     = 1080
	minFrameRate  = 15.0 // inclusive
	maxFrameRate  = 60.0 // exclusive
	posterOffset  = time.Second
)

// WorkspaceStore is the slice of the workspace store the engine needs.
type WorkspaceStore interface {
	CreateWorkFile(ws *model.WorkSpace, fileType model.WorkFileType, extension string) *model.WorkFile
	FilePath(ws *model.WorkSpace, wf *model.WorkFile) string
	SaveWorkspace(ws *model.WorkSpace) error
}

// Engine validates uploads and derives the poster artifact.
type Engine struct {
	analyzer Analyzer
	store    WorkspaceStore
}

func NewEngine(analyzer Analyzer, store WorkspaceStore) *Engine {
	return &Engine{analyzer: analyzer, store: store}
}

// ValidateVideoFile analyzes the stream and decides whether the platform
// accepts it. Bad media yields (false, nil), never an error; an error means
// the analysis tool itself failed.
//
// The resolution floor and ceiling reject only when BOTH dimensions are out
// of range. A file failing a single dimension passes. That boundary is
// deliberately preserved from the product rules; see the tests.
func (e *Engine) ValidateVideoFile(ctx context.Context, r io.Reader) (bool, error) {
	analysis, err := e.analyzer.Analyze(ctx, r)
	if err != nil {
		return false, err
	}

	if len(analysis.Errors) > 0 {
		log.Printf("media: rejected upload, analysis errors: %v", analysis.Errors)
		return false, nil
	}
	if analysis.Duration < minDuration {
		return false, nil
	}
	if analysis.ProbeScore <= minProbeScore {
		return false, nil
	}

	videoStreams := analysis.VideoStreams()
	if len(videoStreams) != 1 {
		return false, nil
	}
	v := videoStreams[0]

	if v.Width < minWidth && v.Height < minHeight {
		return false, nil
	}
	if v.Width > maxWidth && v.Height > maxHeight {
		return false, nil
	}
	if v.AvgFrameRate < minFrameRate || v.AvgFrameRate >= maxFrameRate {
		return false, nil
	}

	return true, nil
}

// GeneratePoster extracts a frame at the one second mark from the
// workspace's original file and records it as a poster work file. The
// workspace metadata is re-saved before returning.
func (e *Engine) GeneratePoster(ctx context.Context, ws *model.WorkSpace, size string) (*model.WorkFile, error) {
	original := ws.FileOfType(model.WorkFileOriginal)
	if original == nil {
		return nil, apperr.Configuration("workspace %s has no original file", ws.ID)
	}

	poster := e.store.CreateWorkFile(ws, model.WorkFilePoster, ".jpg")
	inputPath := e.store.FilePath(ws, original)
	outputPath := e.store.FilePath(ws, poster)

	if err := e.analyzer.Snapshot(ctx, inputPath, outputPath, size, posterOffset); err != nil {
		return nil, apperr.Processing("poster extraction for workspace %s: %v", ws.ID, err)
	}

	if err := e.store.SaveWorkspace(ws); err != nil {
		return nil, err
	}
	return poster, nil
}
