package catalog

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("vector store already bound to a project")
)
