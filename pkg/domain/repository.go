package domain

import (
	"context"
	"fmt"
	"io"
)

// Repository is the backend contract consumed by edit sessions. The transport
// (HTTP, direct store, test double) is opaque to the editing engine.
type Repository interface {
	// GetByID returns the canonical record. Missing ids yield NotFoundError.
	GetByID(ctx context.Context, id string) (CaseRecord, error)
	// Create persists a new record from a sanitized payload and returns it
	// with server-minted identifiers. Contract violations yield ValidationError.
	Create(ctx context.Context, payload Payload) (CaseRecord, error)
	// Update applies a sanitized payload to an existing record. An attachment
	// field explicitly set to null clears the stored file.
	Update(ctx context.Context, id string, payload Payload) (CaseRecord, error)
	// UploadAttachment stores file bytes for one attachment field and returns
	// the server-assigned stored name. Failures yield UploadError.
	UploadAttachment(ctx context.Context, id, field, filename string, r io.Reader) (StoredAttachment, error)
}

// StoredAttachment reports the server-confirmed result of an upload.
type StoredAttachment struct {
	Field      string `json:"field"`
	StoredName string `json:"stored_name"`
}

// NotFoundError is returned when a record id does not exist.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("case record %s not found", e.ID)
}

// ValidationError is returned when the backend rejects a payload. Message is
// surfaced verbatim to the user; Field names the offending key when known.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UploadError is returned when an attachment upload fails.
type UploadError struct {
	Field string
	Err   error
}

func (e UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Field, e.Err)
}

func (e UploadError) Unwrap() error { return e.Err }
