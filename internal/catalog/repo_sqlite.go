package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// SQLiteRepo implements Repo using a local SQLite file, the reference
// deployment's catalog storage.
type SQLiteRepo struct {
	DB *sql.DB
}

// CreateProject inserts a new active project.
func (r *SQLiteRepo) CreateProject(ctx context.Context, name, vectorStoreID string) (Project, error) {
	now := time.Now().UTC()
	p := Project{
		ID:            uuid.NewString(),
		Name:          name,
		VectorStoreID: vectorStoreID,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	const query = `
INSERT INTO projects (project_id, project_name, vector_store_id, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.DB.ExecContext(ctx, query, p.ID, p.Name, p.VectorStoreID, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return Project{}, ErrConflict
		}
		return Project{}, err
	}
	return p, nil
}

// GetProject fetches a project by ID.
func (r *SQLiteRepo) GetProject(ctx context.Context, projectID string) (Project, error) {
	const query = `
SELECT project_id, project_name, vector_store_id, status, created_at, updated_at
FROM projects
WHERE project_id = ?`
	return scanProject(r.DB.QueryRowContext(ctx, query, projectID))
}

// RenameProject updates the name and refreshes updated_at.
func (r *SQLiteRepo) RenameProject(ctx context.Context, projectID, newName string) error {
	const query = `
UPDATE projects
SET project_name = ?, updated_at = ?
WHERE project_id = ?`
	res, err := r.DB.ExecContext(ctx, query, newName, time.Now().UTC(), projectID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ArchiveProject marks a project archived.
func (r *SQLiteRepo) ArchiveProject(ctx context.Context, projectID string) error {
	const query = `
UPDATE projects
SET status = ?, updated_at = ?
WHERE project_id = ?`
	res, err := r.DB.ExecContext(ctx, query, string(StatusArchived), time.Now().UTC(), projectID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListProjects returns projects ordered by updated_at descending.
func (r *SQLiteRepo) ListProjects(ctx context.Context, activeOnly bool) ([]Project, error) {
	query := `
SELECT project_id, project_name, vector_store_id, status, created_at, updated_at
FROM projects
ORDER BY updated_at DESC`
	args := []any{}
	if activeOnly {
		query = `
SELECT project_id, project_name, vector_store_id, status, created_at, updated_at
FROM projects
WHERE status = ?
ORDER BY updated_at DESC`
		args = append(args, string(StatusActive))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddFile upserts a project file row.
func (r *SQLiteRepo) AddFile(ctx context.Context, f ProjectFile) error {
	const query = `
INSERT INTO project_files (project_id, file_id, filename, sha256, added_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (project_id, file_id)
DO UPDATE SET filename = excluded.filename, sha256 = excluded.sha256, added_at = excluded.added_at`

	addedAt := f.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, query, f.ProjectID, f.FileID, f.Filename, nullString(f.SHA256), addedAt)
	return err
}

// RemoveFile deletes a project file row if present.
func (r *SQLiteRepo) RemoveFile(ctx context.Context, projectID, fileID string) error {
	const query = `DELETE FROM project_files WHERE project_id = ? AND file_id = ?`
	_, err := r.DB.ExecContext(ctx, query, projectID, fileID)
	return err
}

// ListFiles returns a project's files, newest first.
func (r *SQLiteRepo) ListFiles(ctx context.Context, projectID string) ([]ProjectFile, error) {
	const query = `
SELECT project_id, file_id, filename, sha256, added_at
FROM project_files
WHERE project_id = ?
ORDER BY added_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectFile
	for rows.Next() {
		var f ProjectFile
		var sha sql.NullString
		if err := rows.Scan(&f.ProjectID, &f.FileID, &f.Filename, &sha, &f.AddedAt); err != nil {
			return nil, err
		}
		if sha.Valid {
			f.SHA256 = sha.String
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// HasFingerprint reports whether a file with the given hash exists in the project.
func (r *SQLiteRepo) HasFingerprint(ctx context.Context, projectID, sha string) (bool, error) {
	const query = `SELECT 1 FROM project_files WHERE project_id = ? AND sha256 = ? LIMIT 1`
	var one int
	err := r.DB.QueryRowContext(ctx, query, projectID, sha).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreatePendingUpload records a saga marker before the remote call.
func (r *SQLiteRepo) CreatePendingUpload(ctx context.Context, p PendingUpload) error {
	const query = `
INSERT INTO pending_uploads (upload_id, project_id, filename, sha256, started_at)
VALUES (?, ?, ?, ?, ?)`
	startedAt := p.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.ProjectID, p.Filename, nullString(p.SHA256), startedAt)
	return err
}

// DeletePendingUpload clears a saga marker.
func (r *SQLiteRepo) DeletePendingUpload(ctx context.Context, uploadID string) error {
	const query = `DELETE FROM pending_uploads WHERE upload_id = ?`
	_, err := r.DB.ExecContext(ctx, query, uploadID)
	return err
}

// ListPendingUploads returns outstanding saga markers for a project.
func (r *SQLiteRepo) ListPendingUploads(ctx context.Context, projectID string) ([]PendingUpload, error) {
	const query = `
SELECT upload_id, project_id, filename, sha256, started_at
FROM pending_uploads
WHERE project_id = ?
ORDER BY started_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingUpload
	for rows.Next() {
		var p PendingUpload
		var sha sql.NullString
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Filename, &sha, &p.StartedAt); err != nil {
			return nil, err
		}
		if sha.Valid {
			p.SHA256 = sha.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ Repo = (*SQLiteRepo)(nil)
