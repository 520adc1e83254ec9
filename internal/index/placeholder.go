package index

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by the placeholder gateway.
var ErrNotConfigured = errors.New("index gateway not configured")

// Placeholder is a stub gateway used where no provider is wired.
type Placeholder struct{}

func (Placeholder) CreateIndex(ctx context.Context, name string) (string, error) {
	return "", &GatewayError{Op: "create index", Err: ErrNotConfigured}
}

func (Placeholder) AddDocument(ctx context.Context, indexID string, content []byte, filename string) (string, error) {
	return "", &GatewayError{Op: "add document", Err: ErrNotConfigured}
}

func (Placeholder) RemoveDocument(ctx context.Context, indexID, documentID string) error {
	return &GatewayError{Op: "remove document", Err: ErrNotConfigured}
}

func (Placeholder) ListDocuments(ctx context.Context, indexID string) ([]string, error) {
	return nil, &GatewayError{Op: "list documents", Err: ErrNotConfigured}
}

func (Placeholder) Answer(ctx context.Context, indexID, instructions, message string) (string, error) {
	return "", &GatewayError{Op: "answer", Err: ErrNotConfigured}
}

var _ Gateway = Placeholder{}
