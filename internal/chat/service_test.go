package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-backend/internal/catalog"
)

type recordingGateway struct {
	answerCalls  int
	instructions string
	indexID      string
	message      string
	reply        string
	err          error
}

func (g *recordingGateway) CreateIndex(ctx context.Context, name string) (string, error) {
	return "", errors.New("not used")
}

func (g *recordingGateway) AddDocument(ctx context.Context, indexID string, content []byte, filename string) (string, error) {
	return "", errors.New("not used")
}

func (g *recordingGateway) RemoveDocument(ctx context.Context, indexID, fileID string) error {
	return errors.New("not used")
}

func (g *recordingGateway) ListDocuments(ctx context.Context, indexID string) ([]string, error) {
	return nil, errors.New("not used")
}

func (g *recordingGateway) Answer(ctx context.Context, indexID, instructions, message string) (string, error) {
	g.answerCalls++
	g.indexID = indexID
	g.instructions = instructions
	g.message = message
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func TestAskRoutesToProjectIndex(t *testing.T) {
	repo := catalog.NewMemoryRepo()
	p, err := repo.CreateProject(context.Background(), "research", "vs_1")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	gw := &recordingGateway{reply: "grounded answer"}
	svc := &Service{Catalog: repo, Gateway: gw}

	answer, err := svc.Ask(context.Background(), p.ID, "what does the paper conclude?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Text != "grounded answer" {
		t.Fatalf("expected gateway reply, got %q", answer.Text)
	}
	if answer.Citations == nil {
		t.Fatalf("citations must be an empty slice, not nil")
	}
	if gw.indexID != "vs_1" {
		t.Fatalf("expected answer against vs_1, got %s", gw.indexID)
	}
	if !strings.Contains(gw.instructions, "Not provided in the documents") {
		t.Fatalf("grounding instructions must carry the refusal phrase")
	}
}

func TestAskUnknownProjectSkipsGateway(t *testing.T) {
	gw := &recordingGateway{}
	svc := &Service{Catalog: catalog.NewMemoryRepo(), Gateway: gw}

	_, err := svc.Ask(context.Background(), "missing", "hello")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if gw.answerCalls != 0 {
		t.Fatalf("unknown project must never reach the gateway, got %d calls", gw.answerCalls)
	}
}

func TestAskArchivedProjectSkipsGateway(t *testing.T) {
	repo := catalog.NewMemoryRepo()
	p, err := repo.CreateProject(context.Background(), "research", "vs_1")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := repo.ArchiveProject(context.Background(), p.ID); err != nil {
		t.Fatalf("ArchiveProject: %v", err)
	}

	gw := &recordingGateway{}
	svc := &Service{Catalog: repo, Gateway: gw}

	_, err = svc.Ask(context.Background(), p.ID, "hello")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for archived project, got %v", err)
	}
	if gw.answerCalls != 0 {
		t.Fatalf("archived project must never reach the gateway, got %d calls", gw.answerCalls)
	}
}

func TestAskRejectsEmptyMessage(t *testing.T) {
	repo := catalog.NewMemoryRepo()
	p, err := repo.CreateProject(context.Background(), "research", "vs_1")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	gw := &recordingGateway{}
	svc := &Service{Catalog: repo, Gateway: gw}

	if _, err := svc.Ask(context.Background(), p.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if gw.answerCalls != 0 {
		t.Fatalf("invalid message must never reach the gateway")
	}
}
