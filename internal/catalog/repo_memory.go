package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory implementation of Repo for dev mode and tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	projects map[string]Project
	files    map[string]map[string]ProjectFile // projectID -> fileID -> file
	pending  map[string]PendingUpload
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		projects: make(map[string]Project),
		files:    make(map[string]map[string]ProjectFile),
		pending:  make(map[string]PendingUpload),
	}
}

// CreateProject inserts a new active project.
func (r *MemoryRepo) CreateProject(ctx context.Context, name, vectorStoreID string) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.VectorStoreID == vectorStoreID {
			return Project{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	p := Project{
		ID:            uuid.NewString(),
		Name:          name,
		VectorStoreID: vectorStoreID,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.projects[p.ID] = p
	return p, nil
}

// GetProject fetches a project by ID.
func (r *MemoryRepo) GetProject(ctx context.Context, projectID string) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[projectID]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

// RenameProject updates the name and refreshes updated_at.
func (r *MemoryRepo) RenameProject(ctx context.Context, projectID, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	p.Name = newName
	p.UpdatedAt = time.Now().UTC()
	r.projects[projectID] = p
	return nil
}

// ArchiveProject marks a project archived.
func (r *MemoryRepo) ArchiveProject(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	p.Status = StatusArchived
	p.UpdatedAt = time.Now().UTC()
	r.projects[projectID] = p
	return nil
}

// ListProjects returns projects ordered by updated_at descending.
func (r *MemoryRepo) ListProjects(ctx context.Context, activeOnly bool) ([]Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Project
	for _, p := range r.projects {
		if activeOnly && p.Status != StatusActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// AddFile upserts a project file row.
func (r *MemoryRepo) AddFile(ctx context.Context, f ProjectFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.AddedAt.IsZero() {
		f.AddedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	files, ok := r.files[f.ProjectID]
	if !ok {
		files = make(map[string]ProjectFile)
		r.files[f.ProjectID] = files
	}
	files[f.FileID] = f
	return nil
}

// RemoveFile deletes a project file row if present.
func (r *MemoryRepo) RemoveFile(ctx context.Context, projectID, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files[projectID], fileID)
	return nil
}

// ListFiles returns a project's files, newest first.
func (r *MemoryRepo) ListFiles(ctx context.Context, projectID string) ([]ProjectFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ProjectFile
	for _, f := range r.files[projectID] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].FileID < out[j].FileID
		}
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out, nil
}

// HasFingerprint reports whether a file with the given hash exists in the project.
func (r *MemoryRepo) HasFingerprint(ctx context.Context, projectID, sha string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if sha == "" {
		return false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.files[projectID] {
		if f.SHA256 == sha {
			return true, nil
		}
	}
	return false, nil
}

// CreatePendingUpload records a saga marker.
func (r *MemoryRepo) CreatePendingUpload(ctx context.Context, p PendingUpload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[p.ID] = p
	return nil
}

// DeletePendingUpload clears a saga marker.
func (r *MemoryRepo) DeletePendingUpload(ctx context.Context, uploadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, uploadID)
	return nil
}

// ListPendingUploads returns outstanding saga markers for a project.
func (r *MemoryRepo) ListPendingUploads(ctx context.Context, projectID string) ([]PendingUpload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PendingUpload
	for _, p := range r.pending {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
