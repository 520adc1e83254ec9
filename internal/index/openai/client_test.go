package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"rag-backend/internal/index"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient("test-key", "gpt-4.1-mini", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client.WithBaseURL(srv.URL)
}

func TestCreateIndex(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/vector_stores" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Name != "research" {
			t.Fatalf("expected name research, got %q", body.Name)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "vs_123"})
	}))

	id, err := client.CreateIndex(context.Background(), "research")
	if err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if id != "vs_123" {
		t.Fatalf("expected vs_123, got %s", id)
	}
}

func TestAddDocumentUploadsThenRegisters(t *testing.T) {
	var uploaded, registered bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files":
			uploaded = true
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse multipart: %v", err)
			}
			if got := r.FormValue("purpose"); got != "assistants" {
				t.Fatalf("expected purpose assistants, got %q", got)
			}
			if _, header, err := r.FormFile("file"); err != nil || header.Filename != "doc.pdf" {
				t.Fatalf("expected file part doc.pdf, got %v %v", header, err)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-9"})
		case "/vector_stores/vs_1/file_batches":
			registered = true
			var body struct {
				FileIDs []string `json:"file_ids"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode batch body: %v", err)
			}
			if !reflect.DeepEqual(body.FileIDs, []string{"file-9"}) {
				t.Fatalf("expected file_ids [file-9], got %v", body.FileIDs)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "batch-1"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	id, err := client.AddDocument(context.Background(), "vs_1", []byte("%PDF-1.4"), "doc.pdf")
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if id != "file-9" {
		t.Fatalf("expected file-9, got %s", id)
	}
	if !uploaded || !registered {
		t.Fatalf("expected both upload and registration, got upload=%v register=%v", uploaded, registered)
	}
}

func TestAddDocumentRegistrationFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-9"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "boom", "type": "server_error"},
			})
		}
	}))

	_, err := client.AddDocument(context.Background(), "vs_1", []byte("%PDF-1.4"), "doc.pdf")
	var gwErr *index.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Op != "add document" {
		t.Fatalf("expected op add document, got %q", gwErr.Op)
	}
}

func TestListDocuments(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vector_stores/vs_1/files" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "200" {
			t.Fatalf("expected limit=200, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "vsf-1", "file_id": "file-1"},
				{"id": "file-2"},
			},
		})
	}))

	ids, err := client.ListDocuments(context.Background(), "vs_1")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"file-1", "file-2"}) {
		t.Fatalf("expected [file-1 file-2], got %v", ids)
	}
}

func TestAnswerExtractsOutputText(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model        string `json:"model"`
			Instructions string `json:"instructions"`
			Tools        []struct {
				Type           string   `json:"type"`
				VectorStoreIDs []string `json:"vector_store_ids"`
			} `json:"tools"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Tools) != 1 || body.Tools[0].Type != "file_search" {
			t.Fatalf("expected file_search tool, got %+v", body.Tools)
		}
		if !reflect.DeepEqual(body.Tools[0].VectorStoreIDs, []string{"vs_1"}) {
			t.Fatalf("expected vector_store_ids [vs_1], got %v", body.Tools[0].VectorStoreIDs)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"output": []map[string]any{
				{"type": "file_search_call"},
				{"type": "message", "content": []map[string]string{
					{"type": "output_text", "text": "grounded answer"},
				}},
			},
		})
	}))

	text, err := client.Answer(context.Background(), "vs_1", "rules", "question")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if text != "grounded answer" {
		t.Fatalf("expected grounded answer, got %q", text)
	}
}

func TestErrorStatusBecomesGatewayError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))

	_, err := client.CreateIndex(context.Background(), "research")
	var gwErr *index.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
}
