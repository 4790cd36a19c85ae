package form

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"anakcore/pkg/domain"
)

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func TestCreateSessionStartsReadyWithTemplate(t *testing.T) {
	s := NewCreateSession(newFakeRepository())
	if s.State() != SessionReady {
		t.Fatalf("state: %s", s.State())
	}
	if s.ID() != "" {
		t.Fatalf("create session must have no id yet: %q", s.ID())
	}
	if v := s.Value("ayah.nama"); v != "" {
		t.Fatalf("template leaf: %v", v)
	}
	if v := s.Value("lampiran"); v == nil {
		t.Fatalf("template must include lampiran")
	}
}

func TestEditSessionHydratesFromRecord(t *testing.T) {
	repo := newFakeRepository()
	foto := "anak.jpg"
	repo.record = domain.CaseRecord{
		Nama:         "Budi",
		TanggalLahir: "2020-06-15",
		Keluhan:      []string{"tantrum"},
		Kesukaan:     "menggambar, berenang",
		Lampiran:     domain.Attachments{Foto: &foto},
	}
	s := NewEditSession(context.Background(), repo, "7")
	if s.State() != SessionReady {
		t.Fatalf("state: %s (load err %v)", s.State(), s.LoadError())
	}
	if s.ID() != "7" {
		t.Fatalf("id: %s", s.ID())
	}
	if v := s.Value("nama"); v != "Budi" {
		t.Fatalf("buffer: %v", v)
	}
	parts := s.DateParts("tanggal_lahir")
	if parts.Day != "15" || parts.Month != "06" || parts.Year != "2020" {
		t.Fatalf("date parts: %+v", parts)
	}
	if tags := s.Tags("keluhan"); len(tags) != 1 || tags[0].Text != "tantrum" {
		t.Fatalf("keluhan tags: %v", tags)
	}
	if tags := s.Tags("kesukaan"); len(tags) != 2 {
		t.Fatalf("joined tag field must split on hydrate: %v", tags)
	}
	view := s.Attachment("foto")
	if view.State != AttachmentConfirmed || view.FileName != "anak.jpg" {
		t.Fatalf("attachment view: %+v", view)
	}
}

func TestEditSessionLoadFailureIsTerminal(t *testing.T) {
	repo := newFakeRepository()
	repo.getErr = &domain.NotFoundError{ID: "7"}
	s := NewEditSession(context.Background(), repo, "7")
	if s.State() != SessionLoadFailed {
		t.Fatalf("state: %s", s.State())
	}
	var nf *domain.NotFoundError
	if !errors.As(s.LoadError(), &nf) {
		t.Fatalf("load error must surface verbatim: %v", s.LoadError())
	}
	if err := s.SetValue("nama", "Budi"); !errors.Is(err, ErrSessionBlocked) {
		t.Fatalf("mutation must stay blocked: %v", err)
	}
	if err := s.Submit(context.Background()); !errors.Is(err, ErrSessionBlocked) {
		t.Fatalf("submit must stay blocked: %v", err)
	}
	if repo.createCalls+repo.updateCalls != 0 {
		t.Fatalf("no network call may happen from a failed session")
	}
}

func TestSetFieldDrivesDerivedAge(t *testing.T) {
	s := NewCreateSession(newFakeRepository(),
		fixedClock(time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)))
	if err := s.SetValue("ayah.tanggal_lahir", "1990-06-15"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v := s.Value("ayah.usia"); v != 33 {
		t.Fatalf("derived usia: %v", v)
	}
}

func TestSetDateComponentComposesAndRejectsRollover(t *testing.T) {
	s := NewCreateSession(newFakeRepository(),
		fixedClock(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)))
	apply := func(part, value string) {
		t.Helper()
		if err := s.Apply(SetDateComponent{Path: "tanggal_lahir", Part: part, Value: value}); err != nil {
			t.Fatalf("apply %s=%s: %v", part, value, err)
		}
	}
	apply("day", "31")
	apply("month", "02")
	apply("year", "2024")
	if v := s.Value("tanggal_lahir"); v != "" {
		t.Fatalf("31 Feb must compose to empty, not roll over: %v", v)
	}
	apply("month", "03")
	if v := s.Value("tanggal_lahir"); v != "2024-03-31" {
		t.Fatalf("valid triple must compose: %v", v)
	}
	if err := s.Apply(SetDateComponent{Path: "nama", Part: "day", Value: "1"}); err == nil {
		t.Fatalf("non-date path must be rejected")
	}
}

func TestTagActionsSyncBuffer(t *testing.T) {
	s := NewCreateSession(newFakeRepository())
	if err := s.Apply(AddTag{Field: "keluhan", Text: "tantrum"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Apply(AddTag{Field: "keluhan", Text: "sulit fokus"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, _ := s.Value("keluhan").([]string)
	if len(got) != 2 || got[0] != "tantrum" {
		t.Fatalf("buffer tags: %v", s.Value("keluhan"))
	}
	if err := s.Apply(RemoveTag{Field: "keluhan", Index: 0}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, _ = s.Value("keluhan").([]string)
	if len(got) != 1 || got[0] != "sulit fokus" {
		t.Fatalf("buffer after remove: %v", s.Value("keluhan"))
	}

	_ = s.Apply(AddTag{Field: "kesukaan", Text: "menggambar"})
	_ = s.Apply(AddTag{Field: "kesukaan", Text: "berenang"})
	if v := s.Value("kesukaan"); v != "menggambar, berenang" {
		t.Fatalf("joined field buffer form: %v", v)
	}

	if err := s.Apply(AddTag{Field: "nama", Text: "x"}); err == nil {
		t.Fatalf("non-tag field must be rejected")
	}
}

func TestSubmitCreateMintsIDAndFlushesAttachments(t *testing.T) {
	repo := newFakeRepository()
	s := NewCreateSession(repo)
	if err := s.SetValue("nama", "Budi"); err != nil {
		t.Fatalf("set: %v", err)
	}
	ctx := context.Background()
	if err := s.UploadAttachment(ctx, "foto", "anak.jpg", []byte("a")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := s.UploadAttachment(ctx, "kartu_keluarga", "kk.pdf", []byte("b")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(repo.uploads) != 0 {
		t.Fatalf("create mode must defer uploads: %v", repo.uploads)
	}

	if err := s.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.ID() != "42" {
		t.Fatalf("minted id must merge into the session: %s", s.ID())
	}
	if repo.createCalls != 1 {
		t.Fatalf("create calls: %d", repo.createCalls)
	}
	if len(repo.uploads) != 2 {
		t.Fatalf("both deferred uploads must flush after create: %v", repo.uploads)
	}
	fields, err := repo.lastCreate.Fields()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if fields["nama"] != "Budi" {
		t.Fatalf("payload: %v", fields)
	}
	if _, ok := fields["alamat"]; ok {
		t.Fatalf("empty fields must not be submitted: %v", fields)
	}
	if s.State() != SessionReady || s.LastError() != nil {
		t.Fatalf("post-submit: %s %v", s.State(), s.LastError())
	}
}

func TestSubmitFailurePreservesBufferAndError(t *testing.T) {
	repo := newFakeRepository()
	repo.createErr = &domain.ValidationError{Field: "nomor_kasus", Message: "sudah dipakai"}
	s := NewCreateSession(repo)
	_ = s.SetValue("nama", "Budi")

	err := s.Submit(context.Background())
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Message != "sudah dipakai" {
		t.Fatalf("server error must surface verbatim: %v", err)
	}
	if s.LastError() != err {
		t.Fatalf("last error: %v", s.LastError())
	}
	if v := s.Value("nama"); v != "Budi" {
		t.Fatalf("buffer must be preserved on failure: %v", v)
	}
	if s.State() != SessionReady {
		t.Fatalf("session must return to ready for retry: %s", s.State())
	}
	if s.ID() != "" {
		t.Fatalf("failed create must not adopt an id: %s", s.ID())
	}

	repo.createErr = nil
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.LastError() != nil {
		t.Fatalf("success must clear last error: %v", s.LastError())
	}
}

type reentrantRepo struct {
	*fakeRepository
	onCreate func()
}

func (r *reentrantRepo) Create(ctx context.Context, payload domain.Payload) (domain.CaseRecord, error) {
	if r.onCreate != nil {
		r.onCreate()
	}
	return r.fakeRepository.Create(ctx, payload)
}

func TestSubmitIsSingleFlight(t *testing.T) {
	repo := &reentrantRepo{fakeRepository: newFakeRepository()}
	s := NewCreateSession(repo)
	var innerErr error
	var innerState SessionState
	repo.onCreate = func() {
		innerState = s.State()
		innerErr = s.Submit(context.Background())
	}
	_ = s.SetValue("nama", "Budi")
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if innerState != SessionSubmitting {
		t.Fatalf("state during submit: %s", innerState)
	}
	if innerErr != nil {
		t.Fatalf("reentrant submit must be a silent no-op: %v", innerErr)
	}
	if repo.createCalls != 1 {
		t.Fatalf("duplicate network call: %d", repo.createCalls)
	}
}

func TestSubmitEditUpdatesAndRefetches(t *testing.T) {
	repo := newFakeRepository()
	repo.record = domain.CaseRecord{Nama: "Budi"}
	s := NewEditSession(context.Background(), repo, "7")
	_ = s.SetValue("nama", "Budi Santoso")

	repo.record.Nama = "Budi Santoso"
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if repo.updateCalls != 1 {
		t.Fatalf("update calls: %d", repo.updateCalls)
	}
	if s.Record().Nama != "Budi Santoso" {
		t.Fatalf("canonical record must refresh: %v", s.Record().Nama)
	}
}

func TestUploadAttachmentEditModeRefetches(t *testing.T) {
	repo := newFakeRepository()
	s := NewEditSession(context.Background(), repo, "7")
	before := repo.getCalls
	if err := s.UploadAttachment(context.Background(), "foto", "anak.jpg", []byte("a")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(repo.uploads) != 1 {
		t.Fatalf("edit mode must upload immediately: %v", repo.uploads)
	}
	if repo.getCalls != before+1 {
		t.Fatalf("upload must refetch canonical state: %d", repo.getCalls)
	}
}

func TestRemoveAttachmentSendsExplicitNull(t *testing.T) {
	repo := newFakeRepository()
	foto := "anak.jpg"
	repo.record = domain.CaseRecord{Lampiran: domain.Attachments{Foto: &foto}}
	s := NewEditSession(context.Background(), repo, "7")

	repo.record = domain.CaseRecord{}
	if err := s.RemoveAttachment(context.Background(), "foto"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	fields, err := repo.lastUpdate.Fields()
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	lampiran, ok := fields["lampiran"].(map[string]any)
	if !ok {
		t.Fatalf("payload: %v", fields)
	}
	v, present := lampiran["foto"]
	if !present || v != nil {
		t.Fatalf("delete must be an explicit null: %v %v", v, present)
	}
	if s.Attachment("foto").State != AttachmentEmpty {
		t.Fatalf("field must clear after delete: %s", s.Attachment("foto").State)
	}
}

func TestRemoveAttachmentDiscardsPendingSelectionInCreateMode(t *testing.T) {
	repo := newFakeRepository()
	s := NewCreateSession(repo)
	if err := s.UploadAttachment(context.Background(), "foto", "wrong.png", []byte("img")); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := s.Attachment("foto").State; got != AttachmentSelected {
		t.Fatalf("state before remove: %s", got)
	}

	if err := s.RemoveAttachment(context.Background(), "foto"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	view := s.Attachment("foto")
	if view.State != AttachmentEmpty || view.FileName != "" {
		t.Fatalf("selection must clear locally: %+v", view)
	}
	if repo.updateCalls != 0 || len(repo.uploads) != 0 {
		t.Fatalf("discard must not touch the network: updates=%d uploads=%v", repo.updateCalls, repo.uploads)
	}

	// A discarded selection no longer flushes at first submit.
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(repo.uploads) != 0 {
		t.Fatalf("uploads after submit: %v", repo.uploads)
	}
}

func TestSetFieldResyncsTagAndDateViews(t *testing.T) {
	s := NewCreateSession(newFakeRepository())

	if err := s.SetValue("keluhan", []string{"tantrum", "sulit fokus"}); err != nil {
		t.Fatalf("set keluhan: %v", err)
	}
	tags := s.Tags("keluhan")
	if len(tags) != 2 || tags[0].Text != "tantrum" || tags[1].Text != "sulit fokus" {
		t.Fatalf("tag view must follow a raw write: %+v", tags)
	}
	if err := s.Apply(AddTag{Field: "keluhan", Text: "tantrum"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := s.Tags("keluhan"); len(got) != 2 {
		t.Fatalf("duplicate detection must see the rewritten list: %+v", got)
	}

	if err := s.SetValue("kesukaan", "menggambar, berenang"); err != nil {
		t.Fatalf("set kesukaan: %v", err)
	}
	if got := s.Tags("kesukaan"); len(got) != 2 || got[1].Text != "berenang" {
		t.Fatalf("joined tag view: %+v", got)
	}

	if err := s.SetValue("tanggal_lahir", "2020-06-15"); err != nil {
		t.Fatalf("set date: %v", err)
	}
	parts := s.DateParts("tanggal_lahir")
	if parts.Day != "15" || parts.Month != "06" || parts.Year != "2020" {
		t.Fatalf("date view must follow a raw write: %+v", parts)
	}
}

// ctxCaptureRepo records the context passed to each repository call.
type ctxCaptureRepo struct {
	*fakeRepository
	createCtx  context.Context
	uploadCtxs []context.Context
}

func (r *ctxCaptureRepo) Create(ctx context.Context, payload domain.Payload) (domain.CaseRecord, error) {
	r.createCtx = ctx
	return r.fakeRepository.Create(ctx, payload)
}

func (r *ctxCaptureRepo) UploadAttachment(ctx context.Context, id, field, filename string, data io.Reader) (domain.StoredAttachment, error) {
	r.uploadCtxs = append(r.uploadCtxs, ctx)
	return r.fakeRepository.UploadAttachment(ctx, id, field, filename, data)
}

func TestCreateFlushGivesEachUploadItsOwnTimeout(t *testing.T) {
	repo := &ctxCaptureRepo{fakeRepository: newFakeRepository()}
	s := NewCreateSession(repo, WithTimeout(time.Hour))
	ctx := context.Background()

	if err := s.UploadAttachment(ctx, "foto", "anak.jpg", []byte("a")); err != nil {
		t.Fatalf("select foto: %v", err)
	}
	if err := s.UploadAttachment(ctx, "kartu_keluarga", "kk.pdf", []byte("b")); err != nil {
		t.Fatalf("select kartu_keluarga: %v", err)
	}
	if err := s.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	createDeadline, ok := repo.createCtx.Deadline()
	if !ok {
		t.Fatalf("create call must carry a timeout")
	}
	if len(repo.uploadCtxs) != 2 {
		t.Fatalf("upload contexts: %d", len(repo.uploadCtxs))
	}
	for i, uploadCtx := range repo.uploadCtxs {
		deadline, ok := uploadCtx.Deadline()
		if !ok {
			t.Fatalf("upload %d must carry a timeout", i)
		}
		if uploadCtx == repo.createCtx {
			t.Fatalf("upload %d must not share the create request context", i)
		}
		if deadline.Before(createDeadline) {
			t.Fatalf("upload %d deadline must get a fresh budget: %v < %v", i, deadline, createDeadline)
		}
	}
}
