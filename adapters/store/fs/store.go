// Package storefs mirrors completed export artifacts to disk, implementing
// the on-disk half of spec.md's Lifecycle clause: exports are "stateless
// across restarts except for on-disk artifacts which are considered
// ephemeral," and destruction "deletes the byte buffers and all derived
// on-disk copies." The in-memory export.Registry stays the single source of
// truth; Store is a best-effort write-behind mirror the Coordinator and
// Registry call out to, never the other way around.
package storefs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-export/export"
)

// Store writes an ExportRecord's artifact bytes under Root/<id>/ and removes
// them again on eviction.
type Store struct {
	Root string
}

// NewStore creates a filesystem-backed artifact mirror rooted at root.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Persist writes every artifact belonging to record to Root/<id>/, one file
// per Artifact.SuggestedFilename. Satisfies export.ArtifactMirror.
func (s *Store) Persist(record *export.ExportRecord) error {
	if s == nil || s.Root == "" {
		return export.NewError(export.KindValidation, "store root is required", nil)
	}
	if record == nil || record.ID == "" {
		return export.NewError(export.KindValidation, "record id is required", nil)
	}

	dir := s.recordDir(record.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if record.Artifacts.Single != nil {
		if err := writeArtifactFile(dir, *record.Artifacts.Single); err != nil {
			return err
		}
	}
	for _, chunk := range record.Artifacts.Chunks {
		if err := writeArtifactFile(dir, chunk.Artifact); err != nil {
			return err
		}
	}
	if record.Artifacts.Archive != nil {
		if err := writeArtifactFile(dir, record.Artifacts.Archive.Artifact); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the on-disk mirror for id, if any. Intended to be wired as
// an export.Registry eviction hook.
func (s *Store) Remove(id string) error {
	if s == nil || s.Root == "" || id == "" {
		return nil
	}
	return os.RemoveAll(s.recordDir(id))
}

func (s *Store) recordDir(id string) string {
	return filepath.Join(s.Root, id)
}

func writeArtifactFile(dir string, artifact export.Artifact) error {
	name := artifact.SuggestedFilename
	if name == "" {
		return export.NewError(export.KindArtifactInvalid, "artifact has no filename", nil)
	}

	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".mirror-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(artifact.Bytes); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storefs: rename %s: %w", path, err)
	}
	return nil
}
