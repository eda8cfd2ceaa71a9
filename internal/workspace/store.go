// Package workspace is the sole authority over the on-disk layout for
// staged media. A workspace is a directory {workDir}/{location}/{id}
// holding a metadata.json plus media files named {workFileId}{ext}.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clipshare/api/internal/apperr"
	"github.com/clipshare/api/internal/model"
)

const metadataFile = "metadata.json"

// Store manages workspace directories under a single work directory.
type Store struct {
	workDir string
}

func NewStore(workDir string) *Store {
	return &Store{workDir: workDir}
}

func (s *Store) dir(location model.Location, id string) string {
	return filepath.Join(s.workDir, string(location), id)
}

// CreateWorkspace allocates an id and creates the directory. The returned
// workspace is not yet persisted; call SaveWorkspace once files exist.
func (s *Store) CreateWorkspace(location model.Location) (*model.WorkSpace, error) {
	ws := &model.WorkSpace{
		ID:        uuid.NewString(),
		Location:  location,
		CreatedAt: time.Now(),
	}
	if err := os.MkdirAll(s.dir(location, ws.ID), 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	return ws, nil
}

// CreateWorkFile allocates a work file record inside the workspace. The
// record is not persisted: the caller writes the physical bytes to
// FilePath and then calls SaveWorkspace.
func (s *Store) CreateWorkFile(ws *model.WorkSpace, fileType model.WorkFileType, extension string) *model.WorkFile {
	wf := model.WorkFile{
		ID:       uuid.NewString(),
		Type:     fileType,
		FileName: "",
	}
	wf.FileName = wf.ID + extension
	ws.Files = append(ws.Files, wf)
	return &ws.Files[len(ws.Files)-1]
}

// FilePath returns the absolute path of a work file inside its workspace.
func (s *Store) FilePath(ws *model.WorkSpace, wf *model.WorkFile) string {
	return filepath.Join(s.dir(ws.Location, ws.ID), wf.FileName)
}

// SaveWorkspace serializes the workspace metadata to disk. This is the
// durability boundary: a crash before this call loses the workspace's
// bookkeeping even if physical files exist.
func (s *Store) SaveWorkspace(ws *model.WorkSpace) error {
	dest := filepath.Join(s.dir(ws.Location, ws.ID), metadataFile)
	return writeFileAtomic(dest, ws)
}

// LoadWorkspace deserializes workspace metadata from a location.
func (s *Store) LoadWorkspace(location model.Location, id string) (*model.WorkSpace, error) {
	b, err := os.ReadFile(filepath.Join(s.dir(location, id), metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("workspace %s in %s", id, location)
		}
		return nil, fmt.Errorf("read workspace metadata: %w", err)
	}
	var ws model.WorkSpace
	if err := json.Unmarshal(b, &ws); err != nil {
		return nil, apperr.NotFound("workspace %s metadata unreadable: %v", id, err)
	}
	return &ws, nil
}

// MoveWorkspace physically moves the directory between lifecycle locations
// and re-saves metadata with the updated location. The two steps are not
// atomic: a crash in between leaves the workspace at the new location with
// stale metadata.
func (s *Store) MoveWorkspace(from, to model.Location, id string) (*model.WorkSpace, error) {
	ws, err := s.LoadWorkspace(from, id)
	if err != nil {
		return nil, err
	}
	dest := s.dir(to, id)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("create location dir: %w", err)
	}
	if err := os.Rename(s.dir(from, id), dest); err != nil {
		return nil, fmt.Errorf("move workspace: %w", err)
	}
	ws.Location = to
	if err := s.SaveWorkspace(ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// DeleteWorkspace removes the workspace directory and everything in it.
func (s *Store) DeleteWorkspace(location model.Location, id string) error {
	if err := os.RemoveAll(s.dir(location, id)); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return nil
}

// writeFileAtomic writes JSON to a temp file then renames it into place.
func writeFileAtomic(dest string, v any) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp := dest + ".tmp"
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	// On Windows, rename over existing fails; remove first.
	_ = os.Remove(dest)
	return os.Rename(tmp, dest)
}
