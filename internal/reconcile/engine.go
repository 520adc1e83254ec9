package reconcile

import (
	"context"
	"sort"

	"rag-backend/internal/catalog"
	"rag-backend/internal/index"
	"rag-backend/internal/shared/telemetry"
)

// Engine detects drift between the catalog's view of a project's files and
// the remote index's authoritative listing.
type Engine struct {
	Catalog catalog.Repo
	Gateway index.Gateway
}

// Report is the result of one reconcile pass.
//
// OnlyLocal holds file IDs the catalog believes exist remotely but the remote
// listing does not confirm; they are reported, never auto-deleted, because the
// remote listing itself may be truncated at the provider page cap.
// OnlyRemote holds file IDs present remotely but unknown locally.
// StalePending holds upload saga markers that were never cleared, the trace
// of a crash between the remote add and the local write.
type Report struct {
	ProjectID    string                  `json:"project_id"`
	OnlyLocal    []string                `json:"only_local"`
	OnlyRemote   []string                `json:"only_remote"`
	StalePending []catalog.PendingUpload `json:"-"`
}

// Reconcile computes the drift report. It is a pure read-only diff.
func (e *Engine) Reconcile(ctx context.Context, projectID string) (Report, error) {
	project, err := e.Catalog.GetProject(ctx, projectID)
	if err != nil {
		return Report{}, err
	}

	remoteIDs, err := e.Gateway.ListDocuments(ctx, project.VectorStoreID)
	if err != nil {
		return Report{}, err
	}
	remoteSet := make(map[string]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		remoteSet[id] = struct{}{}
	}

	files, err := e.Catalog.ListFiles(ctx, projectID)
	if err != nil {
		return Report{}, err
	}
	localSet := make(map[string]struct{}, len(files))
	for _, f := range files {
		localSet[f.FileID] = struct{}{}
	}

	report := Report{
		ProjectID:  projectID,
		OnlyLocal:  []string{},
		OnlyRemote: []string{},
	}
	for id := range localSet {
		if _, ok := remoteSet[id]; !ok {
			report.OnlyLocal = append(report.OnlyLocal, id)
		}
	}
	for id := range remoteSet {
		if _, ok := localSet[id]; !ok {
			report.OnlyRemote = append(report.OnlyRemote, id)
		}
	}
	sort.Strings(report.OnlyLocal)
	sort.Strings(report.OnlyRemote)

	pending, err := e.Catalog.ListPendingUploads(ctx, projectID)
	if err != nil {
		return Report{}, err
	}
	report.StalePending = pending

	return report, nil
}

// Repair catches the catalog up with remote truth: every file present only
// remotely gains a local row with the file ID as placeholder filename and no
// fingerprint. Local-only entries are left alone; deleting them could be
// wrong when the remote listing was truncated. Repair is idempotent.
func (e *Engine) Repair(ctx context.Context, projectID string) (Report, error) {
	report, err := e.Reconcile(ctx, projectID)
	if err != nil {
		return Report{}, err
	}

	for _, fileID := range report.OnlyRemote {
		err := e.Catalog.AddFile(ctx, catalog.ProjectFile{
			ProjectID: projectID,
			FileID:    fileID,
			Filename:  fileID,
		})
		if err != nil {
			return Report{}, err
		}
	}

	if len(report.OnlyRemote) > 0 {
		telemetry.Info("reconcile.repair", map[string]any{
			"project_id": projectID,
			"restored":   len(report.OnlyRemote),
		})
	}

	return report, nil
}
