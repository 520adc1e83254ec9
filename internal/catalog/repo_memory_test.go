package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoProjectLifecycle(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	created, err := repo.CreateProject(ctx, "research", "vs_abc")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated project id")
	}
	if created.Status != StatusActive {
		t.Fatalf("expected active status, got %s", created.Status)
	}

	got, err := repo.GetProject(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.VectorStoreID != "vs_abc" {
		t.Fatalf("expected vector store vs_abc, got %s", got.VectorStoreID)
	}

	if err := repo.RenameProject(ctx, created.ID, "research v2"); err != nil {
		t.Fatalf("RenameProject: %v", err)
	}
	got, _ = repo.GetProject(ctx, created.ID)
	if got.Name != "research v2" {
		t.Fatalf("expected renamed project, got %s", got.Name)
	}
}

func TestMemoryRepoVectorStoreUniqueness(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if _, err := repo.CreateProject(ctx, "one", "vs_dup"); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := repo.CreateProject(ctx, "two", "vs_dup"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMemoryRepoArchiveIsIdempotent(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	p, err := repo.CreateProject(ctx, "research", "vs_1")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if err := repo.ArchiveProject(ctx, p.ID); err != nil {
		t.Fatalf("ArchiveProject: %v", err)
	}
	if err := repo.ArchiveProject(ctx, p.ID); err != nil {
		t.Fatalf("second ArchiveProject: %v", err)
	}

	got, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Status != StatusArchived {
		t.Fatalf("expected archived, got %s", got.Status)
	}

	active, err := repo.ListProjects(ctx, true)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active projects, got %d", len(active))
	}
	all, err := repo.ListProjects(ctx, false)
	if err != nil {
		t.Fatalf("ListProjects all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one project overall, got %d", len(all))
	}
}

func TestMemoryRepoUnknownProject(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if _, err := repo.GetProject(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProject: expected ErrNotFound, got %v", err)
	}
	if err := repo.RenameProject(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RenameProject: expected ErrNotFound, got %v", err)
	}
	if err := repo.ArchiveProject(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ArchiveProject: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoAddFileUpserts(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	f := ProjectFile{ProjectID: "p1", FileID: "file-1", Filename: "a.pdf", SHA256: "aaa"}
	if err := repo.AddFile(ctx, f); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	f.Filename = "b.pdf"
	if err := repo.AddFile(ctx, f); err != nil {
		t.Fatalf("second AddFile: %v", err)
	}

	files, err := repo.ListFiles(ctx, "p1")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected one row after upsert, got %d", len(files))
	}
	if files[0].Filename != "b.pdf" {
		t.Fatalf("expected upserted filename b.pdf, got %s", files[0].Filename)
	}
}

func TestMemoryRepoRemoveFileAbsentIsNoop(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.RemoveFile(context.Background(), "p1", "nope"); err != nil {
		t.Fatalf("RemoveFile on absent row: %v", err)
	}
}

func TestMemoryRepoHasFingerprint(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if err := repo.AddFile(ctx, ProjectFile{ProjectID: "p1", FileID: "f1", Filename: "a.pdf", SHA256: "sha-a"}); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	// A row restored by repair carries no fingerprint.
	if err := repo.AddFile(ctx, ProjectFile{ProjectID: "p1", FileID: "f2", Filename: "f2"}); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	ok, err := repo.HasFingerprint(ctx, "p1", "sha-a")
	if err != nil {
		t.Fatalf("HasFingerprint: %v", err)
	}
	if !ok {
		t.Fatalf("expected fingerprint sha-a to be known")
	}

	ok, err = repo.HasFingerprint(ctx, "p1", "")
	if err != nil {
		t.Fatalf("HasFingerprint empty: %v", err)
	}
	if ok {
		t.Fatalf("empty fingerprint must never match")
	}

	ok, err = repo.HasFingerprint(ctx, "p2", "sha-a")
	if err != nil {
		t.Fatalf("HasFingerprint other project: %v", err)
	}
	if ok {
		t.Fatalf("fingerprints are scoped per project")
	}
}

func TestMemoryRepoListFilesNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"f1", "f2", "f3"} {
		f := ProjectFile{ProjectID: "p1", FileID: id, Filename: id + ".pdf", AddedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.AddFile(ctx, f); err != nil {
			t.Fatalf("AddFile %s: %v", id, err)
		}
	}

	files, err := repo.ListFiles(ctx, "p1")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	if files[0].FileID != "f3" || files[2].FileID != "f1" {
		t.Fatalf("expected newest first, got %s..%s", files[0].FileID, files[2].FileID)
	}
}

func TestMemoryRepoPendingUploads(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	p := PendingUpload{ID: "u1", ProjectID: "p1", Filename: "a.pdf", SHA256: "sha-a"}
	if err := repo.CreatePendingUpload(ctx, p); err != nil {
		t.Fatalf("CreatePendingUpload: %v", err)
	}

	list, err := repo.ListPendingUploads(ctx, "p1")
	if err != nil {
		t.Fatalf("ListPendingUploads: %v", err)
	}
	if len(list) != 1 || list[0].ID != "u1" {
		t.Fatalf("expected pending u1, got %+v", list)
	}
	if list[0].StartedAt.IsZero() {
		t.Fatalf("expected StartedAt to be filled")
	}

	if err := repo.DeletePendingUpload(ctx, "u1"); err != nil {
		t.Fatalf("DeletePendingUpload: %v", err)
	}
	list, err = repo.ListPendingUploads(ctx, "p1")
	if err != nil {
		t.Fatalf("ListPendingUploads after delete: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no pending uploads, got %d", len(list))
	}
}
