package blob

import (
	fsstore "anakcore/internal/infra/blob/fs"
)

// NewFilesystem returns a filesystem-backed blob.Store rooted at root,
// creating the directory when needed.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }
