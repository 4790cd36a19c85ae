package form

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anakcore/pkg/dateparts"
	"anakcore/pkg/domain"
	"anakcore/pkg/fieldpath"
)

// SessionState is the lifecycle of one record edit session.
type SessionState string

// Session lifecycle states. LoadFailed is terminal: editing stays blocked
// until the user opens a fresh session.
const (
	SessionLoading    SessionState = "loading"
	SessionReady      SessionState = "ready"
	SessionSubmitting SessionState = "submitting"
	SessionLoadFailed SessionState = "load_failed"
)

// Logger is the minimal structured logger consumed by sessions.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ErrSessionBlocked is returned for mutations while the session is not Ready.
var ErrSessionBlocked = errors.New("session is not ready for editing")

// Action is the tagged mutation union applied to the edit buffer. Modeling
// edits as actions keeps the state machine testable without a UI.
type Action interface{ isAction() }

// SetField writes a raw value at a dot path.
type SetField struct {
	Path  string
	Value any
}

// AddTag appends a tag to a tag field.
type AddTag struct {
	Field string
	Text  string
}

// RemoveTag deletes the tag at Index from a tag field.
type RemoveTag struct {
	Field string
	Index int
}

// SetDateComponent updates one component (day, month, year) of a date field.
type SetDateComponent struct {
	Path  string
	Part  string
	Value string
}

func (SetField) isAction()         {}
func (AddTag) isAction()           {}
func (RemoveTag) isAction()        {}
func (SetDateComponent) isAction() {}

// Option configures a session.
type Option func(*Session)

// WithClock overrides the clock used for derived-field computation.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithTimeout overrides the per-request timeout applied to repository calls.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithLogger attaches a structured logger.
func WithLogger(log Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithDeriveEngine overrides the derivation rule set.
func WithDeriveEngine(engine *DeriveEngine) Option {
	return func(s *Session) { s.derive = engine }
}

const defaultTimeout = 30 * time.Second

// Session owns one edit buffer for the lifetime of a create or edit flow and
// orchestrates mutation, derivation, tag sync, sanitization, submission, and
// attachment uploads. A session is confined to a single goroutine; the only
// concurrency guard is the single-flight submit flag.
type Session struct {
	repo        domain.Repository
	schema      Schema
	sanitizer   Sanitizer
	derive      *DeriveEngine
	coordinator *UploadCoordinator

	id     string
	state  SessionState
	buffer map[string]any
	record domain.CaseRecord
	tags   map[string]*TagCollection
	dates  map[string]dateparts.Parts

	submitting bool
	lastErr    error
	loadErr    error

	now     func() time.Time
	timeout time.Duration
	log     Logger
}

func newSession(repo domain.Repository, opts []Option) *Session {
	s := &Session{
		repo:        repo,
		schema:      CaseRecordSchema(),
		derive:      NewDeriveEngine(),
		coordinator: NewUploadCoordinator(repo, domain.AttachmentFields()),
		now:         func() time.Time { return time.Now().UTC() },
		timeout:     defaultTimeout,
		log:         noopLogger{},
	}
	s.sanitizer = NewSanitizer(s.schema)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCreateSession starts a create-flow session over the empty-entity
// template. The entity id is minted by the backend at first submit.
func NewCreateSession(repo domain.Repository, opts ...Option) *Session {
	s := newSession(repo, opts)
	s.state = SessionReady
	s.setBuffer(EmptyBuffer())
	return s
}

// NewEditSession starts an edit-flow session by loading the canonical record.
// A load failure leaves the session terminally blocked with the message
// available via LoadError; no retry loop is attempted.
func NewEditSession(ctx context.Context, repo domain.Repository, id string, opts ...Option) *Session {
	s := newSession(repo, opts)
	s.id = id
	s.state = SessionLoading
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	record, err := repo.GetByID(callCtx, id)
	if err != nil {
		s.state = SessionLoadFailed
		s.loadErr = err
		s.log.Error("load case record", "id", id, "error", err)
		return s
	}
	s.hydrate(record)
	s.state = SessionReady
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// ID returns the entity id, empty while a create flow has not submitted.
func (s *Session) ID() string { return s.id }

// IsSubmitting reports whether a submit is in flight.
func (s *Session) IsSubmitting() bool { return s.submitting }

// LastError returns the most recent submit error, nil after a success.
func (s *Session) LastError() error { return s.lastErr }

// LoadError returns the terminal load failure for a blocked edit session.
func (s *Session) LoadError() error { return s.loadErr }

// Record returns the last canonical record fetched from the repository.
func (s *Session) Record() domain.CaseRecord { return s.record }

// Value resolves the buffer value at a dot path; missing paths yield nil.
func (s *Session) Value(path string) any {
	v, _ := fieldpath.Get(s.buffer, fieldpath.Parse(path))
	return v
}

// Buffer returns the live edit buffer. Callers must treat it as read-only.
func (s *Session) Buffer() map[string]any { return s.buffer }

// DateParts returns the editable components of a date field.
func (s *Session) DateParts(path string) dateparts.Parts {
	return s.dates[path]
}

// Tags returns the view items of a tag field.
func (s *Session) Tags(field string) []TagItem {
	if c, ok := s.tags[field]; ok {
		return c.Items()
	}
	return nil
}

// Apply runs one action through the reducer. Mutations are rejected unless
// the session is Ready.
func (s *Session) Apply(action Action) error {
	if s.state != SessionReady {
		return ErrSessionBlocked
	}
	switch a := action.(type) {
	case SetField:
		s.setField(fieldpath.Parse(a.Path), a.Value)
		s.syncViewState(a.Path)
	case AddTag:
		c, ok := s.tags[a.Field]
		if !ok {
			return fmt.Errorf("unknown tag field %s", a.Field)
		}
		if c.Add(a.Text) {
			s.setField(fieldpath.Parse(a.Field), c.Canonical())
		}
	case RemoveTag:
		c, ok := s.tags[a.Field]
		if !ok {
			return fmt.Errorf("unknown tag field %s", a.Field)
		}
		if c.Remove(a.Index) {
			s.setField(fieldpath.Parse(a.Field), c.Canonical())
		}
	case SetDateComponent:
		spec, ok := s.schema.Spec(a.Path)
		if !ok || spec.Kind != KindDate {
			return fmt.Errorf("not a date field: %s", a.Path)
		}
		parts := s.dates[a.Path]
		switch a.Part {
		case "day":
			parts.Day = a.Value
		case "month":
			parts.Month = a.Value
		case "year":
			parts.Year = a.Value
		default:
			return fmt.Errorf("unknown date component %s", a.Part)
		}
		s.dates[a.Path] = parts
		// An incomplete or invalid triple writes an empty date; derived
		// fields reset along with it.
		s.setField(fieldpath.Parse(a.Path), dateparts.Compose(parts.Day, parts.Month, parts.Year))
	default:
		return fmt.Errorf("unknown action %T", action)
	}
	return nil
}

// SetValue is shorthand for Apply(SetField{...}).
func (s *Session) SetValue(path string, value any) error {
	return s.Apply(SetField{Path: path, Value: value})
}

// Submit sanitizes the buffer and sends it to the repository. Submitting
// while a submit is in flight is a no-op. On success the session refetches
// canonical state (create mode first merges the minted id and flushes pending
// attachments); on failure the buffer is preserved and the server message is
// surfaced verbatim through LastError.
func (s *Session) Submit(ctx context.Context) error {
	if s.submitting {
		return nil
	}
	if s.state != SessionReady {
		return ErrSessionBlocked
	}
	s.submitting = true
	s.state = SessionSubmitting
	defer func() {
		s.submitting = false
		s.state = SessionReady
	}()

	payload, err := s.sanitizer.Sanitize(s.buffer)
	if err != nil {
		s.lastErr = err
		return err
	}

	if s.id == "" {
		callCtx, cancel := s.callCtx(ctx)
		record, err := s.repo.Create(callCtx, payload)
		cancel()
		if err != nil {
			s.lastErr = err
			s.log.Warn("create case record", "error", err)
			return err
		}
		s.id = record.ID
		s.log.Info("case record created", "id", s.id)
		// Each flushed upload gets its own request timeout; a slow create must
		// not eat into the upload budget.
		if failures := s.coordinator.Flush(ctx, s.id, s.callCtx); len(failures) > 0 {
			for field, ferr := range failures {
				s.log.Warn("attachment flush", "field", field, "error", ferr)
			}
		}
	} else {
		callCtx, cancel := s.callCtx(ctx)
		_, err := s.repo.Update(callCtx, s.id, payload)
		cancel()
		if err != nil {
			s.lastErr = err
			s.log.Warn("update case record", "id", s.id, "error", err)
			return err
		}
	}
	s.lastErr = nil
	return s.refetch(ctx)
}

// AttachmentView is the per-field surface exposed to the UI layer.
type AttachmentView struct {
	Field       string
	FileName    string
	State       AttachmentState
	IsUploading bool
	Err         error
}

// Attachment returns the current view of one attachment field.
func (s *Session) Attachment(field string) AttachmentView {
	return AttachmentView{
		Field:       field,
		FileName:    s.coordinator.FileName(field),
		State:       s.coordinator.State(field),
		IsUploading: s.coordinator.State(field) == AttachmentUploading,
		Err:         s.coordinator.Err(field),
	}
}

// UploadAttachment registers a chosen file for a field. In edit mode the
// upload happens immediately and the canonical record is refetched so the
// server-confirmed filename replaces the local one; in create mode the file
// queues until the first successful submit.
func (s *Session) UploadAttachment(ctx context.Context, field, filename string, data []byte) error {
	if s.state != SessionReady {
		return ErrSessionBlocked
	}
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.coordinator.Select(callCtx, s.id, field, filename, data); err != nil {
		s.log.Warn("attachment upload", "field", field, "error", err)
		return err
	}
	if s.id == "" {
		return nil
	}
	return s.refetch(ctx)
}

// RemoveAttachment discards an attachment. In create mode the pending local
// selection is dropped without touching the network; in edit mode the delete
// is expressed as an update with the field explicitly null, then the record
// is refetched.
func (s *Session) RemoveAttachment(ctx context.Context, field string) error {
	if s.state != SessionReady {
		return ErrSessionBlocked
	}
	if s.id == "" {
		s.coordinator.MarkEmpty(field)
		return nil
	}
	payload, err := domain.NewPayloadFromValue(map[string]any{
		"lampiran": map[string]any{field: nil},
	})
	if err != nil {
		return err
	}
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if _, err := s.repo.Update(callCtx, s.id, payload); err != nil {
		s.log.Warn("attachment delete", "field", field, "error", err)
		return err
	}
	s.coordinator.MarkEmpty(field)
	return s.refetch(ctx)
}

func (s *Session) setField(path fieldpath.Path, value any) {
	s.buffer = fieldpath.Set(s.buffer, path, value)
	s.buffer = s.derive.Apply(s.buffer, path, s.now())
}

// syncViewState rebuilds the tag or date view of a schema-declared path after
// a raw write, so the views never drift from the buffer. Tag writes are also
// normalized back to the canonical representation.
func (s *Session) syncViewState(path string) {
	spec, ok := s.schema.Spec(path)
	if !ok {
		return
	}
	switch spec.Kind {
	case KindTags:
		value, _ := fieldpath.Get(s.buffer, fieldpath.Parse(path))
		c := NewTagCollection(value, spec.Joined)
		s.tags[path] = c
		s.buffer = fieldpath.Set(s.buffer, fieldpath.Parse(path), c.Canonical())
	case KindDate:
		value, _ := fieldpath.Get(s.buffer, fieldpath.Parse(path))
		str, _ := value.(string)
		s.dates[path] = dateparts.Decompose(str)
	}
}

func (s *Session) refetch(ctx context.Context) error {
	callCtx, cancel := s.callCtx(ctx)
	defer cancel()
	record, err := s.repo.GetByID(callCtx, s.id)
	if err != nil {
		s.lastErr = err
		s.log.Warn("refetch case record", "id", s.id, "error", err)
		return err
	}
	s.hydrate(record)
	return nil
}

func (s *Session) hydrate(record domain.CaseRecord) {
	s.record = record
	buffer, err := EntityBuffer(record)
	if err != nil {
		// Entities always encode; keep the previous buffer on the off chance.
		s.log.Error("hydrate buffer", "id", record.ID, "error", err)
		return
	}
	s.setBuffer(buffer)
	s.coordinator.Hydrate(attachmentNames(record))
}

// setBuffer replaces the buffer wholesale and rebuilds the tag-collection and
// date-component view state from it.
func (s *Session) setBuffer(buffer map[string]any) {
	s.buffer = buffer
	s.tags = make(map[string]*TagCollection)
	for _, field := range s.schema.TagFields() {
		value, _ := fieldpath.Get(buffer, fieldpath.Parse(field))
		spec, _ := s.schema.Spec(field)
		s.tags[field] = NewTagCollection(value, spec.Joined)
	}
	s.dates = make(map[string]dateparts.Parts)
	for path, spec := range s.schema.Fields {
		if spec.Kind != KindDate {
			continue
		}
		value, _ := fieldpath.Get(buffer, fieldpath.Parse(path))
		str, _ := value.(string)
		s.dates[path] = dateparts.Decompose(str)
	}
}

func (s *Session) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
