package catalog

import "time"

// ProjectStatus is the lifecycle state of a project. Projects are never
// deleted, only archived.
type ProjectStatus string

const (
	StatusActive   ProjectStatus = "active"
	StatusArchived ProjectStatus = "archived"
)

// Project maps an administrative project to its remote vector store. The
// binding is 1:1 and immutable once created.
type Project struct {
	ID            string
	Name          string
	VectorStoreID string
	Status        ProjectStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProjectFile records a document known to belong to a project's vector store.
// SHA256 is empty when the row was reconciled from the remote side, where the
// content hash is unknown.
type ProjectFile struct {
	ProjectID string
	FileID    string
	Filename  string
	SHA256    string
	AddedAt   time.Time
}

// PendingUpload is the saga marker written before the remote add-document
// call and cleared after the local file row lands. A marker that survives a
// process crash shows up in the reconcile report as the recovery signal.
type PendingUpload struct {
	ID        string
	ProjectID string
	Filename  string
	SHA256    string
	StartedAt time.Time
}
