package catalog

import "context"

// Repo defines persistence operations for the project catalog. All writes
// are immediately durable; no write spans a remote call.
type Repo interface {
	// CreateProject inserts a new active project bound to vectorStoreID.
	// Returns ErrConflict when the vector store is already bound.
	CreateProject(ctx context.Context, name, vectorStoreID string) (Project, error)
	GetProject(ctx context.Context, projectID string) (Project, error)
	// RenameProject updates the name and refreshes updated_at.
	RenameProject(ctx context.Context, projectID, newName string) error
	// ArchiveProject sets status=archived. Archiving twice is a no-op, not
	// an error.
	ArchiveProject(ctx context.Context, projectID string) error
	// ListProjects returns projects ordered by updated_at descending.
	ListProjects(ctx context.Context, activeOnly bool) ([]Project, error)

	// AddFile upserts on (project_id, file_id), replacing filename, hash and
	// timestamp on re-add.
	AddFile(ctx context.Context, f ProjectFile) error
	// RemoveFile deletes the row if present; no-op if absent.
	RemoveFile(ctx context.Context, projectID, fileID string) error
	// ListFiles returns a project's files ordered by added_at descending.
	ListFiles(ctx context.Context, projectID string) ([]ProjectFile, error)
	// HasFingerprint reports whether any file in the project carries the
	// given content hash.
	HasFingerprint(ctx context.Context, projectID, sha string) (bool, error)

	CreatePendingUpload(ctx context.Context, p PendingUpload) error
	DeletePendingUpload(ctx context.Context, uploadID string) error
	ListPendingUploads(ctx context.Context, projectID string) ([]PendingUpload, error)
}
