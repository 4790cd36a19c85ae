package form

import (
	"bytes"
	"context"
	"fmt"

	"anakcore/pkg/domain"
)

// AttachmentState is the lifecycle of one attachment field.
type AttachmentState string

// Attachment field states. Selected only persists in create mode, where the
// upload must wait for the entity id.
const (
	AttachmentEmpty     AttachmentState = "empty"
	AttachmentSelected  AttachmentState = "selected"
	AttachmentUploading AttachmentState = "uploading"
	AttachmentConfirmed AttachmentState = "confirmed"
	AttachmentFailed    AttachmentState = "failed"
)

type pendingFile struct {
	name string
	data []byte
}

type attachmentField struct {
	state    AttachmentState
	fileName string
	pending  *pendingFile
	err      error
}

// UploadCoordinator manages per-field attachment uploads whose target entity
// may not exist yet. In edit mode a selection uploads immediately; in create
// mode selections queue until Flush is called with the new entity id.
type UploadCoordinator struct {
	repo   domain.Repository
	fields map[string]*attachmentField
	order  []string
}

// NewUploadCoordinator builds a coordinator covering the given fields.
func NewUploadCoordinator(repo domain.Repository, fieldNames []string) *UploadCoordinator {
	fields := make(map[string]*attachmentField, len(fieldNames))
	order := make([]string, 0, len(fieldNames))
	for _, name := range fieldNames {
		fields[name] = &attachmentField{state: AttachmentEmpty}
		order = append(order, name)
	}
	return &UploadCoordinator{repo: repo, fields: fields, order: order}
}

// Hydrate syncs confirmed server filenames from a canonical record, replacing
// any optimistic local names. Fields absent from the record become Empty
// unless a local selection is still pending.
func (c *UploadCoordinator) Hydrate(stored map[string]*string) {
	for name, field := range c.fields {
		if field.state == AttachmentSelected || field.state == AttachmentUploading {
			continue
		}
		if v, ok := stored[name]; ok && v != nil && *v != "" {
			field.state = AttachmentConfirmed
			field.fileName = *v
			field.err = nil
			continue
		}
		field.state = AttachmentEmpty
		field.fileName = ""
	}
}

// Select registers a chosen file. With a known entity id the upload is issued
// immediately (Selected -> Uploading -> Confirmed|Failed); without one the
// file stays Selected until Flush. On failure the field reverts to Empty and
// the error is returned, never retried automatically.
func (c *UploadCoordinator) Select(ctx context.Context, entityID, fieldName, filename string, data []byte) error {
	field, ok := c.fields[fieldName]
	if !ok {
		return fmt.Errorf("unknown attachment field %s", fieldName)
	}
	field.pending = &pendingFile{name: filename, data: data}
	field.fileName = filename
	field.err = nil
	if entityID == "" {
		field.state = AttachmentSelected
		return nil
	}
	return c.upload(ctx, entityID, fieldName, field)
}

// Flush uploads all Selected files sequentially against the freshly minted
// entity id. When scope is non-nil each upload runs under its own derived
// context, so one request timeout covers one upload. Each field reports its
// own outcome; one failure does not block the rest. The returned map holds
// errors per failed field, nil when all uploads confirmed.
func (c *UploadCoordinator) Flush(ctx context.Context, entityID string, scope func(context.Context) (context.Context, context.CancelFunc)) map[string]error {
	var failures map[string]error
	for _, name := range c.order {
		field := c.fields[name]
		if field.state != AttachmentSelected {
			continue
		}
		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if scope != nil {
			callCtx, cancel = scope(ctx)
		}
		err := c.upload(callCtx, entityID, name, field)
		cancel()
		if err != nil {
			if failures == nil {
				failures = make(map[string]error)
			}
			failures[name] = err
		}
	}
	return failures
}

func (c *UploadCoordinator) upload(ctx context.Context, entityID, fieldName string, field *attachmentField) error {
	pending := field.pending
	if pending == nil {
		return fmt.Errorf("no file selected for %s", fieldName)
	}
	field.state = AttachmentUploading
	stored, err := c.repo.UploadAttachment(ctx, entityID, fieldName, pending.name, bytes.NewReader(pending.data))
	if err != nil {
		field.state = AttachmentEmpty
		field.fileName = ""
		field.pending = nil
		field.err = err
		return err
	}
	field.state = AttachmentConfirmed
	field.fileName = stored.StoredName
	field.pending = nil
	field.err = nil
	return nil
}

// MarkEmpty clears a field after a confirmed server-side delete or when a
// local selection is discarded before upload.
func (c *UploadCoordinator) MarkEmpty(fieldName string) {
	if field, ok := c.fields[fieldName]; ok {
		field.state = AttachmentEmpty
		field.fileName = ""
		field.pending = nil
		field.err = nil
	}
}

// HasPending reports whether any field is still Selected awaiting a flush.
func (c *UploadCoordinator) HasPending() bool {
	for _, field := range c.fields {
		if field.state == AttachmentSelected {
			return true
		}
	}
	return false
}

// State returns the lifecycle state for a field.
func (c *UploadCoordinator) State(fieldName string) AttachmentState {
	if field, ok := c.fields[fieldName]; ok {
		return field.state
	}
	return AttachmentEmpty
}

// FileName returns the local or server-confirmed filename for a field.
func (c *UploadCoordinator) FileName(fieldName string) string {
	if field, ok := c.fields[fieldName]; ok {
		return field.fileName
	}
	return ""
}

// Err returns the last upload error for a field, if any.
func (c *UploadCoordinator) Err(fieldName string) error {
	if field, ok := c.fields[fieldName]; ok {
		return field.err
	}
	return nil
}
