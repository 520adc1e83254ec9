package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"rag-backend/internal/index"
)

const defaultBaseURL = "https://api.openai.com/v1"

// listPageLimit caps ListDocuments at one provider page. Reconciliation for
// projects above this bound is incomplete until pagination is added.
const listPageLimit = 200

// Client implements index.Gateway against the OpenAI vector store, file and
// responses APIs.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI gateway client. The timeout bounds every
// remote call; once issued, a call runs to completion or times out.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("OPENAI_MODEL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// WithBaseURL points the client at an alternate API host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type createVectorStoreRequest struct {
	Name string `json:"name"`
}

type vectorStoreResponse struct {
	ID    string    `json:"id"`
	Error *apiError `json:"error,omitempty"`
}

// CreateIndex provisions a new vector store and returns its ID.
func (c *Client) CreateIndex(ctx context.Context, name string) (string, error) {
	const op = "create index"

	payload, err := json.Marshal(createVectorStoreRequest{Name: name})
	if err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}

	var parsed vectorStoreResponse
	if err := c.doJSON(ctx, http.MethodPost, "/vector_stores", bytes.NewReader(payload), "application/json", &parsed); err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}
	if parsed.Error != nil {
		return "", &index.GatewayError{Op: op, Err: fmt.Errorf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}
	if parsed.ID == "" {
		return "", &index.GatewayError{Op: op, Err: fmt.Errorf("response missing vector store id")}
	}
	return parsed.ID, nil
}

type fileResponse struct {
	ID    string    `json:"id"`
	Error *apiError `json:"error,omitempty"`
}

type fileBatchRequest struct {
	FileIDs []string `json:"file_ids"`
}

type fileBatchResponse struct {
	ID    string    `json:"id"`
	Error *apiError `json:"error,omitempty"`
}

// AddDocument uploads the raw bytes to the provider's file storage, then
// registers the file into the vector store. If registration fails after the
// upload succeeded, the uploaded file is orphaned on the provider side; there
// is no compensating cleanup.
func (c *Client) AddDocument(ctx context.Context, indexID string, content []byte, filename string) (string, error) {
	const op = "add document"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("purpose", "assistants"); err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}
	if _, err := part.Write(content); err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}

	var uploaded fileResponse
	if err := c.doJSON(ctx, http.MethodPost, "/files", body, writer.FormDataContentType(), &uploaded); err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}
	if uploaded.Error != nil {
		return "", &index.GatewayError{Op: op, Err: fmt.Errorf("%s (%s)", uploaded.Error.Message, uploaded.Error.Type)}
	}
	if uploaded.ID == "" {
		return "", &index.GatewayError{Op: op, Err: fmt.Errorf("response missing file id")}
	}

	payload, err := json.Marshal(fileBatchRequest{FileIDs: []string{uploaded.ID}})
	if err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}
	var batch fileBatchResponse
	path := fmt.Sprintf("/vector_stores/%s/file_batches", indexID)
	if err := c.doJSON(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json", &batch); err != nil {
		return "", &index.GatewayError{Op: op, Err: fmt.Errorf("register file %s: %w", uploaded.ID, err)}
	}
	if batch.Error != nil {
		return "", &index.GatewayError{Op: op, Err: fmt.Errorf("register file %s: %s (%s)", uploaded.ID, batch.Error.Message, batch.Error.Type)}
	}

	return uploaded.ID, nil
}

type deleteResponse struct {
	Deleted bool      `json:"deleted"`
	Error   *apiError `json:"error,omitempty"`
}

// RemoveDocument detaches the file from the vector store. The underlying
// provider file is kept: it may be registered in other indexes.
func (c *Client) RemoveDocument(ctx context.Context, indexID, documentID string) error {
	const op = "remove document"

	var parsed deleteResponse
	path := fmt.Sprintf("/vector_stores/%s/files/%s", indexID, documentID)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, "", &parsed); err != nil {
		return &index.GatewayError{Op: op, Err: err}
	}
	if parsed.Error != nil {
		return &index.GatewayError{Op: op, Err: fmt.Errorf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}
	return nil
}

type listFilesResponse struct {
	Data []struct {
		ID     string `json:"id"`
		FileID string `json:"file_id"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// ListDocuments returns up to one page of file IDs registered in the vector store.
func (c *Client) ListDocuments(ctx context.Context, indexID string) ([]string, error) {
	const op = "list documents"

	var parsed listFilesResponse
	path := fmt.Sprintf("/vector_stores/%s/files?limit=%d", indexID, listPageLimit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, "", &parsed); err != nil {
		return nil, &index.GatewayError{Op: op, Err: err}
	}
	if parsed.Error != nil {
		return nil, &index.GatewayError{Op: op, Err: fmt.Errorf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}

	ids := make([]string, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		id := item.FileID
		if id == "" {
			id = item.ID
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type responsesRequest struct {
	Model        string          `json:"model"`
	Instructions string          `json:"instructions"`
	Input        string          `json:"input"`
	Tools        []responsesTool `json:"tools"`
}

type responsesTool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *apiError `json:"error,omitempty"`
}

// Answer asks the responses API with a file_search tool bound to the vector store.
func (c *Client) Answer(ctx context.Context, indexID, instructions, message string) (string, error) {
	const op = "answer"

	payload, err := json.Marshal(responsesRequest{
		Model:        c.model,
		Instructions: instructions,
		Input:        message,
		Tools: []responsesTool{
			{Type: "file_search", VectorStoreIDs: []string{indexID}},
		},
	})
	if err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}

	var parsed responsesResponse
	if err := c.doJSON(ctx, http.MethodPost, "/responses", bytes.NewReader(payload), "application/json", &parsed); err != nil {
		return "", &index.GatewayError{Op: op, Err: err}
	}
	if parsed.Error != nil {
		return "", &index.GatewayError{Op: op, Err: fmt.Errorf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}

	var b strings.Builder
	for _, item := range parsed.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" {
				b.WriteString(content.Text)
			}
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &index.GatewayError{Op: op, Err: fmt.Errorf("response contains no output text")}
	}
	return text, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return fmt.Errorf("request timeout: %w", err)
		}
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("response parse (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

var _ index.Gateway = (*Client)(nil)
