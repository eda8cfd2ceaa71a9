package model

import "time"

// WorkSpace is the staging area for one video's files during ingestion.
// Its metadata file on disk is the single source of truth for the file set:
// every mutation must be followed by a SaveWorkspace before the workspace
// is considered consistent.
type WorkSpace struct {
	ID        string     `json:"id"`
	Location  Location   `json:"location"`
	Files     []WorkFile `json:"files"`
	CreatedAt time.Time  `json:"createdAt"`
}

// WorkFile is one physical artifact inside a workspace. Never mutated after
// creation; removed only by workspace deletion.
type WorkFile struct {
	ID       string       `json:"id"`
	Type     WorkFileType `json:"type"`
	FileName string       `json:"fileName"`
	Tags     []string     `json:"tags,omitempty"`
}

// FileOfType returns the first work file of the given type, or nil.
func (ws *WorkSpace) FileOfType(t WorkFileType) *WorkFile {
	for i := range ws.Files {
		if ws.Files[i].Type == t {
			return &ws.Files[i]
		}
	}
	return nil
}
