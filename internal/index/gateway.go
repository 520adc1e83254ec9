package index

import (
	"context"
	"fmt"
)

// Gateway abstracts the hosted document-index and answering capability.
// AddDocument is two-phase under the hood (raw upload, then registration
// into the index) but exposed as one call. ListDocuments returns at most
// one provider page; reconciliation completeness beyond that bound is not
// guaranteed.
type Gateway interface {
	CreateIndex(ctx context.Context, name string) (indexID string, err error)
	AddDocument(ctx context.Context, indexID string, content []byte, filename string) (documentID string, err error)
	RemoveDocument(ctx context.Context, indexID, documentID string) error
	ListDocuments(ctx context.Context, indexID string) ([]string, error)
	// Answer invokes the grounded-answering capability with retrieval scope
	// bound to exactly one index.
	Answer(ctx context.Context, indexID, instructions, message string) (string, error)
}

// GatewayError wraps any failure from the external capability. The gateway
// never retries; callers decide whether to retry, surface, or abort.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("index gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
