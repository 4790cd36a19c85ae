package core

import (
	"context"
	"io"
	"time"

	"anakcore/internal/form"
	"anakcore/pkg/domain"
)

// Service decorates a repository with logging, metrics, and tracing, and
// hands out edit sessions bound to the instrumented repository.
type Service struct {
	repo    domain.Repository
	log     Logger
	metrics MetricsRecorder
	tracer  Tracer
	now     func() time.Time
}

var _ domain.Repository = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger; it also propagates to sessions.
func WithLogger(log Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithMetricsRecorder attaches an operation metrics sink.
func WithMetricsRecorder(metrics MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = metrics }
}

// WithTracer attaches a span tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// WithClock overrides the clock used for operation timing.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService constructs a service over the supplied repository.
func NewService(repo domain.Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo: repo,
		log:  NewNoopLogger(),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByID fetches the canonical record through the instrumentation layer.
func (s *Service) GetByID(ctx context.Context, id string) (domain.CaseRecord, error) {
	var record domain.CaseRecord
	err := s.instrument(ctx, "case_record.get", func(ctx context.Context) error {
		var err error
		record, err = s.repo.GetByID(ctx, id)
		return err
	})
	return record, err
}

// Create persists a new case record.
func (s *Service) Create(ctx context.Context, payload domain.Payload) (domain.CaseRecord, error) {
	var record domain.CaseRecord
	err := s.instrument(ctx, "case_record.create", func(ctx context.Context) error {
		var err error
		record, err = s.repo.Create(ctx, payload)
		return err
	})
	return record, err
}

// Update applies a sanitized payload to an existing record.
func (s *Service) Update(ctx context.Context, id string, payload domain.Payload) (domain.CaseRecord, error) {
	var record domain.CaseRecord
	err := s.instrument(ctx, "case_record.update", func(ctx context.Context) error {
		var err error
		record, err = s.repo.Update(ctx, id, payload)
		return err
	})
	return record, err
}

// UploadAttachment stores attachment bytes for one field.
func (s *Service) UploadAttachment(ctx context.Context, id, field, filename string, r io.Reader) (domain.StoredAttachment, error) {
	var stored domain.StoredAttachment
	err := s.instrument(ctx, "case_record.upload_attachment", func(ctx context.Context) error {
		var err error
		stored, err = s.repo.UploadAttachment(ctx, id, field, filename, r)
		return err
	})
	return stored, err
}

// BeginCreate opens a create-flow edit session over the instrumented
// repository.
func (s *Service) BeginCreate(opts ...form.Option) *form.Session {
	return form.NewCreateSession(s, s.sessionOptions(opts)...)
}

// BeginEdit opens an edit-flow session for an existing record.
func (s *Service) BeginEdit(ctx context.Context, id string, opts ...form.Option) *form.Session {
	return form.NewEditSession(ctx, s, id, s.sessionOptions(opts)...)
}

func (s *Service) sessionOptions(opts []form.Option) []form.Option {
	return append([]form.Option{form.WithLogger(s.log)}, opts...)
}

func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := s.now()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	err := fn(ctx)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, s.now().Sub(start))
	}
	if err != nil {
		s.log.Warn(operation, "error", err)
	} else {
		s.log.Debug(operation)
	}
	return err
}
