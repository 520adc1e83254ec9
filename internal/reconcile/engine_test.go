package reconcile

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"rag-backend/internal/catalog"
)

type fakeGateway struct {
	remote map[string][]string
}

func (f *fakeGateway) CreateIndex(ctx context.Context, name string) (string, error) {
	return "vs_fake", nil
}

func (f *fakeGateway) AddDocument(ctx context.Context, indexID string, content []byte, filename string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeGateway) RemoveDocument(ctx context.Context, indexID, fileID string) error {
	return errors.New("not used")
}

func (f *fakeGateway) ListDocuments(ctx context.Context, indexID string) ([]string, error) {
	return f.remote[indexID], nil
}

func (f *fakeGateway) Answer(ctx context.Context, indexID, instructions, message string) (string, error) {
	return "", errors.New("not used")
}

func seedProject(t *testing.T, repo catalog.Repo, localFiles []string) catalog.Project {
	t.Helper()
	p, err := repo.CreateProject(context.Background(), "research", "vs_1")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	for _, id := range localFiles {
		f := catalog.ProjectFile{ProjectID: p.ID, FileID: id, Filename: id + ".pdf", SHA256: "sha-" + id}
		if err := repo.AddFile(context.Background(), f); err != nil {
			t.Fatalf("AddFile %s: %v", id, err)
		}
	}
	return p
}

func TestReconcileComputesDrift(t *testing.T) {
	repo := catalog.NewMemoryRepo()
	gw := &fakeGateway{remote: map[string][]string{
		"vs_1": {"f2", "f3", "f4"},
	}}
	p := seedProject(t, repo, []string{"f1", "f2", "f3"})

	engine := &Engine{Catalog: repo, Gateway: gw}
	report, err := engine.Reconcile(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if !reflect.DeepEqual(report.OnlyLocal, []string{"f1"}) {
		t.Fatalf("expected only_local [f1], got %v", report.OnlyLocal)
	}
	if !reflect.DeepEqual(report.OnlyRemote, []string{"f4"}) {
		t.Fatalf("expected only_remote [f4], got %v", report.OnlyRemote)
	}
}

func TestReconcileInSyncIsEmpty(t *testing.T) {
	repo := catalog.NewMemoryRepo()
	gw := &fakeGateway{remote: map[string][]string{
		"vs_1": {"f1", "f2"},
	}}
	p := seedProject(t, repo, []string{"f1", "f2"})

	engine := &Engine{Catalog: repo, Gateway: gw}
	report, err := engine.Reconcile(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.OnlyLocal) != 0 || len(report.OnlyRemote) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestReconcileUnknownProject(t *testing.T) {
	engine := &Engine{Catalog: catalog.NewMemoryRepo(), Gateway: &fakeGateway{}}
	if _, err := engine.Reconcile(context.Background(), "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReconcileSurfacesStalePending(t *testing.T) {
	repo := catalog.NewMemoryRepo()
	gw := &fakeGateway{remote: map[string][]string{"vs_1": nil}}
	p := seedProject(t, repo, nil)

	marker := catalog.PendingUpload{ID: "u1", ProjectID: p.ID, Filename: "a.pdf", SHA256: "sha-a"}
	if err := repo.CreatePendingUpload(context.Background(), marker); err != nil {
		t.Fatalf("CreatePendingUpload: %v", err)
	}

	engine := &Engine{Catalog: repo, Gateway: gw}
	report, err := engine.Reconcile(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(report.StalePending) != 1 || report.StalePending[0].ID != "u1" {
		t.Fatalf("expected stale pending u1, got %+v", report.StalePending)
	}
}

func TestRepairRestoresRemoteOnlyFiles(t *testing.T) {
	repo := catalog.NewMemoryRepo()
	gw := &fakeGateway{remote: map[string][]string{
		"vs_1": {"f1", "f9"},
	}}
	p := seedProject(t, repo, []string{"f1"})

	engine := &Engine{Catalog: repo, Gateway: gw}
	report, err := engine.Repair(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if !reflect.DeepEqual(report.OnlyRemote, []string{"f9"}) {
		t.Fatalf("expected only_remote [f9], got %v", report.OnlyRemote)
	}

	files, err := repo.ListFiles(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files after repair, got %d", len(files))
	}
	var restored catalog.ProjectFile
	for _, f := range files {
		if f.FileID == "f9" {
			restored = f
		}
	}
	if restored.Filename != "f9" {
		t.Fatalf("restored row should use the file id as filename, got %q", restored.Filename)
	}
	if restored.SHA256 != "" {
		t.Fatalf("restored row must carry no fingerprint, got %q", restored.SHA256)
	}

	// A second repair finds nothing left to restore.
	report, err = engine.Repair(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("second Repair: %v", err)
	}
	if len(report.OnlyRemote) != 0 {
		t.Fatalf("expected idempotent repair, got %v", report.OnlyRemote)
	}
	files, _ = repo.ListFiles(context.Background(), p.ID)
	if len(files) != 2 {
		t.Fatalf("expected 2 files after second repair, got %d", len(files))
	}
}

func TestRepairLeavesLocalOnlyAlone(t *testing.T) {
	repo := catalog.NewMemoryRepo()
	gw := &fakeGateway{remote: map[string][]string{"vs_1": nil}}
	p := seedProject(t, repo, []string{"f1"})

	engine := &Engine{Catalog: repo, Gateway: gw}
	report, err := engine.Repair(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if !reflect.DeepEqual(report.OnlyLocal, []string{"f1"}) {
		t.Fatalf("expected only_local [f1], got %v", report.OnlyLocal)
	}

	files, _ := repo.ListFiles(context.Background(), p.ID)
	if len(files) != 1 {
		t.Fatalf("repair must never delete local rows, got %d", len(files))
	}
}
