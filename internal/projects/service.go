package projects

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rag-backend/internal/catalog"
	"rag-backend/internal/index"
	"rag-backend/internal/shared/metrics"
	"rag-backend/internal/shared/storage/object"
	"rag-backend/internal/shared/telemetry"
	"rag-backend/internal/shared/util"
)

// Service contains the project administration logic: project lifecycle and
// the document upload/remove flows that straddle the catalog and the remote
// index. Multi-step flows are not transactional across the two systems; each
// step is durable on its own and drift is left to the reconcile engine.
type Service struct {
	Catalog catalog.Repo
	Gateway index.Gateway
	Store   object.ObjectStore
}

// Create provisions a remote index and persists the project binding. The two
// steps are not atomic: if the catalog write fails, the fresh remote index is
// orphaned. That is logged and surfaced, never silently cleaned up.
func (s *Service) Create(ctx context.Context, name string) (catalog.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Project{}, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}

	vectorStoreID, err := s.Gateway.CreateIndex(ctx, name)
	if err != nil {
		return catalog.Project{}, err
	}

	project, err := s.Catalog.CreateProject(ctx, name, vectorStoreID)
	if err != nil {
		telemetry.Error("project.create.orphaned_index", map[string]any{
			"vector_store_id": vectorStoreID,
			"error":           err.Error(),
		})
		return catalog.Project{}, err
	}
	return project, nil
}

// Rename updates the project's display name.
func (s *Service) Rename(ctx context.Context, projectID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	return s.Catalog.RenameProject(ctx, projectID, newName)
}

// Archive hides the project from active listings. The remote index and its
// documents are untouched.
func (s *Service) Archive(ctx context.Context, projectID string) error {
	return s.Catalog.ArchiveProject(ctx, projectID)
}

// List returns projects, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]catalog.Project, error) {
	return s.Catalog.ListProjects(ctx, activeOnly)
}

// Get returns a project by ID.
func (s *Service) Get(ctx context.Context, projectID string) (catalog.Project, error) {
	return s.Catalog.GetProject(ctx, projectID)
}

// UploadResult reports the outcome of one document upload.
type UploadResult struct {
	File    catalog.ProjectFile
	Deduped bool
	Pages   int
}

// UploadDocument validates the payload, skips duplicates by content hash when
// dedup is on, archives the bytes, and runs the add sequence: pending marker,
// remote add, local row, marker cleared.
func (s *Service) UploadDocument(ctx context.Context, projectID, filename string, content []byte, dedup bool) (UploadResult, error) {
	project, err := s.activeProject(ctx, projectID)
	if err != nil {
		return UploadResult{}, err
	}
	if len(content) == 0 {
		return UploadResult{}, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}

	pages, err := validatePDF(filename, content)
	if err != nil {
		return UploadResult{}, err
	}

	sha := util.Fingerprint(content)

	if dedup {
		exists, err := s.Catalog.HasFingerprint(ctx, projectID, sha)
		if err != nil {
			return UploadResult{}, err
		}
		if exists {
			metrics.IncUploadDeduped()
			telemetry.Info("document.upload.deduped", map[string]any{
				"project_id": projectID,
				"filename":   filename,
				"sha256":     sha,
			})
			return UploadResult{Deduped: true}, nil
		}
	}

	storageKey, _, _, err := s.Store.Save(ctx, projectID, filename, bytes.NewReader(content))
	if err != nil {
		metrics.IncUploadFailed()
		return UploadResult{}, fmt.Errorf("archive copy: %w", err)
	}

	pending := catalog.PendingUpload{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Filename:  filename,
		SHA256:    sha,
	}
	if err := s.Catalog.CreatePendingUpload(ctx, pending); err != nil {
		metrics.IncUploadFailed()
		return UploadResult{}, err
	}

	fileID, err := s.Gateway.AddDocument(ctx, project.VectorStoreID, content, filename)
	if err != nil {
		// The remote add did not complete; the marker has nothing to cover.
		if delErr := s.Catalog.DeletePendingUpload(ctx, pending.ID); delErr != nil {
			telemetry.Warn("document.upload.marker_left", map[string]any{
				"upload_id": pending.ID,
				"error":     delErr.Error(),
			})
		}
		metrics.IncUploadFailed()
		return UploadResult{}, err
	}

	file := catalog.ProjectFile{
		ProjectID: projectID,
		FileID:    fileID,
		Filename:  filename,
		SHA256:    sha,
	}
	if err := s.Catalog.AddFile(ctx, file); err != nil {
		// Remote add succeeded but the local write failed: the marker stays
		// and the reconcile report carries the recovery signal.
		metrics.IncUploadFailed()
		return UploadResult{}, err
	}
	if err := s.Catalog.DeletePendingUpload(ctx, pending.ID); err != nil {
		telemetry.Warn("document.upload.marker_left", map[string]any{
			"upload_id": pending.ID,
			"error":     err.Error(),
		})
	}

	metrics.IncUpload()
	telemetry.Info("document.upload", map[string]any{
		"project_id":  projectID,
		"file_id":     fileID,
		"filename":    filename,
		"pages":       pages,
		"storage_key": storageKey,
	})

	return UploadResult{File: file, Pages: pages}, nil
}

// RemoveDocument detaches the file from the remote index, then deletes the
// local row. A failure between the two leaves a local-only row the reconcile
// report will flag.
func (s *Service) RemoveDocument(ctx context.Context, projectID, fileID string) error {
	project, err := s.activeProject(ctx, projectID)
	if err != nil {
		return err
	}
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return fmt.Errorf("%w: file id is required", ErrInvalidInput)
	}

	if err := s.Gateway.RemoveDocument(ctx, project.VectorStoreID, fileID); err != nil {
		return err
	}
	return s.Catalog.RemoveFile(ctx, projectID, fileID)
}

// ListDocuments returns the catalog's view of a project's files.
func (s *Service) ListDocuments(ctx context.Context, projectID string) ([]catalog.ProjectFile, error) {
	if _, err := s.Catalog.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.Catalog.ListFiles(ctx, projectID)
}

func (s *Service) activeProject(ctx context.Context, projectID string) (catalog.Project, error) {
	project, err := s.Catalog.GetProject(ctx, projectID)
	if err != nil {
		return catalog.Project{}, err
	}
	if project.Status != catalog.StatusActive {
		return catalog.Project{}, catalog.ErrNotFound
	}
	return project, nil
}
