package documents

import "errors"

var (
	// ErrDocumentNotFound indicates the document does not exist for the org.
	ErrDocumentNotFound = errors.New("documents: document not found")
	// ErrStoreDisabled indicates no blob bucket is configured.
	ErrStoreDisabled = errors.New("documents: blob store not configured")
)
