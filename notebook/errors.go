package notebook

import "errors"

// Sentinel errors for document and cell lookups. Lookup failures are
// rejected immediately with no side effects performed.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrCellNotFound     = errors.New("cell not found")
	ErrNoSession        = errors.New("no kernel session bound to document")
	ErrInvalidCellType  = errors.New("invalid cell type")
)
