// Package core wires the case-record repository, the form engine, and the
// observability surface into one service facade for the admin client.
package core

import (
	"anakcore/internal/form"
	"anakcore/pkg/domain"
)

// Re-exported domain types so callers of core need a single import.
type (
	CaseRecord       = domain.CaseRecord
	Payload          = domain.Payload
	Repository       = domain.Repository
	StoredAttachment = domain.StoredAttachment
	NotFoundError    = domain.NotFoundError
	ValidationError  = domain.ValidationError
	UploadError      = domain.UploadError
)

// Re-exported form engine types used by UI callers.
type (
	Session        = form.Session
	SessionState   = form.SessionState
	Action         = form.Action
	AttachmentView = form.AttachmentView
	Logger         = form.Logger
)

// Session lifecycle states.
const (
	SessionLoading    = form.SessionLoading
	SessionReady      = form.SessionReady
	SessionSubmitting = form.SessionSubmitting
	SessionLoadFailed = form.SessionLoadFailed
)
