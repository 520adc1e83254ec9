package chat

import (
	"context"
	"fmt"
	"strings"

	"rag-backend/internal/catalog"
	"rag-backend/internal/index"
	"rag-backend/internal/shared/metrics"
)

// ErrInvalidInput marks a malformed question.
var ErrInvalidInput = fmt.Errorf("invalid input")

// Citation points at a supporting source. Citations are currently always
// empty: extracting filename/page annotations from the raw model response is
// a defined extension point, not implemented.
type Citation struct {
	Filename string `json:"filename"`
	Page     *int   `json:"page,omitempty"`
	Quote    string `json:"quote,omitempty"`
}

// Answer is the grounded response for one question.
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Service answers questions scoped to one project's remote index. It is
// stateless per request; no conversation memory is kept across calls.
type Service struct {
	Catalog catalog.Repo
	Gateway index.Gateway
}

// Ask resolves the project's vector store and invokes the grounded-answering
// capability. An unknown or archived project fails with catalog.ErrNotFound
// before any gateway call is issued.
func (s *Service) Ask(ctx context.Context, projectID, message string) (Answer, error) {
	if strings.TrimSpace(message) == "" {
		return Answer{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	project, err := s.Catalog.GetProject(ctx, projectID)
	if err != nil {
		return Answer{}, err
	}
	if project.Status != catalog.StatusActive {
		return Answer{}, catalog.ErrNotFound
	}

	start := metrics.NowMillis()
	text, err := s.Gateway.Answer(ctx, project.VectorStoreID, groundingInstructions, message)
	if err != nil {
		metrics.IncChatFailed()
		return Answer{}, err
	}
	metrics.IncChatAnswer()
	metrics.ObserveChatDurationMs(metrics.NowMillis() - start)

	return Answer{Text: text, Citations: []Citation{}}, nil
}
