// Package memory implements the case-record repository in process memory.
// It is the source of truth for the server contract: the sqlite and postgres
// stores wrap it and add durability.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"anakcore/internal/blob"
	"anakcore/pkg/dateparts"
	"anakcore/pkg/domain"
)

var _ domain.Repository = (*Store)(nil)

// Store holds case records keyed by id and stores attachment bytes in a
// blob.Store under anak/<id>/<field>/ prefixes.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.CaseRecord
	blobs   blob.Store
	now     func() time.Time
}

// NewStore returns an empty repository writing attachments to blobs.
func NewStore(blobs blob.Store) *Store {
	return &Store{
		records: make(map[string]domain.CaseRecord),
		blobs:   blobs,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source. Test hook.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// GetByID returns a copy of the stored record.
func (s *Store) GetByID(_ context.Context, id string) (domain.CaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return domain.CaseRecord{}, domain.NotFoundError{ID: id}
	}
	return record, nil
}

// Create validates the payload against the server contract, mints identifiers
// and timestamps, and stores the new record.
func (s *Store) Create(_ context.Context, payload domain.Payload) (domain.CaseRecord, error) {
	fields, err := payload.Fields()
	if err != nil {
		return domain.CaseRecord{}, domain.ValidationError{Message: fmt.Sprintf("malformed payload: %v", err)}
	}
	if err := validateFields(fields, ""); err != nil {
		return domain.CaseRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if nomor, ok := fields["nomor_kasus"].(string); ok && nomor != "" {
		for _, existing := range s.records {
			if existing.NomorKasus == nomor {
				return domain.CaseRecord{}, domain.ValidationError{Field: "nomor_kasus", Message: "nomor kasus sudah digunakan"}
			}
		}
	}

	record, err := applyFields(domain.CaseRecord{}, fields)
	if err != nil {
		return domain.CaseRecord{}, err
	}
	now := s.now()
	record.ID = uuid.NewString()
	record.CreatedAt = now
	record.UpdatedAt = now
	mintSubRecordIDs(&record)
	s.records[record.ID] = record
	return record, nil
}

// Update validates and merges the payload into an existing record. An
// attachment field explicitly set to null clears the stored file.
func (s *Store) Update(ctx context.Context, id string, payload domain.Payload) (domain.CaseRecord, error) {
	fields, err := payload.Fields()
	if err != nil {
		return domain.CaseRecord{}, domain.ValidationError{Message: fmt.Sprintf("malformed payload: %v", err)}
	}
	if err := validateFields(fields, ""); err != nil {
		return domain.CaseRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[id]
	if !ok {
		return domain.CaseRecord{}, domain.NotFoundError{ID: id}
	}

	record, err := applyFields(existing, fields)
	if err != nil {
		return domain.CaseRecord{}, err
	}
	record.Base = existing.Base
	record.UpdatedAt = s.now()
	mintSubRecordIDs(&record)
	s.dropClearedAttachments(ctx, id, existing.Lampiran, record.Lampiran)
	s.records[id] = record
	return record, nil
}

// UploadAttachment stores the file bytes and records the stored name on the
// attachment field. The key carries a fresh uuid so re-uploads never collide.
func (s *Store) UploadAttachment(ctx context.Context, id, field, filename string, r io.Reader) (domain.StoredAttachment, error) {
	if !isAttachmentField(field) {
		return domain.StoredAttachment{}, domain.UploadError{Field: field, Err: fmt.Errorf("unknown attachment field")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return domain.StoredAttachment{}, domain.NotFoundError{ID: id}
	}
	storedName := uuid.NewString() + "-" + sanitizeFilename(filename)
	key := attachmentKey(id, field, storedName)
	if _, err := s.blobs.Put(ctx, key, r, blob.PutOptions{Metadata: map[string]string{"field": field, "filename": filename}}); err != nil {
		return domain.StoredAttachment{}, domain.UploadError{Field: field, Err: err}
	}
	setAttachment(&record.Lampiran, field, storedName)
	record.UpdatedAt = s.now()
	s.records[id] = record
	return domain.StoredAttachment{Field: field, StoredName: storedName}, nil
}

// Snapshot is the serializable bucket layout used by the durable stores.
type Snapshot struct {
	Records []domain.CaseRecord `json:"records"`
}

// ExportState returns a deterministic snapshot of all records.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CaseRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return Snapshot{Records: out}
}

// ImportState replaces the in-memory state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.CaseRecord, len(snapshot.Records))
	for _, record := range snapshot.Records {
		s.records[record.ID] = record
	}
}

// dropClearedAttachments best-effort deletes blobs for fields the update set
// to null. Caller holds the write lock.
func (s *Store) dropClearedAttachments(ctx context.Context, id string, before, after domain.Attachments) {
	for _, field := range domain.AttachmentFields() {
		prev := attachmentValue(before, field)
		next := attachmentValue(after, field)
		if prev == nil || next != nil {
			continue
		}
		infos, err := s.blobs.List(ctx, attachmentKey(id, field, ""))
		if err != nil {
			continue
		}
		for _, info := range infos {
			_, _ = s.blobs.Delete(ctx, info.Key)
		}
	}
}

func attachmentKey(id, field, storedName string) string {
	return "anak/" + id + "/" + field + "/" + storedName
}

func isAttachmentField(field string) bool {
	for _, name := range domain.AttachmentFields() {
		if name == field {
			return true
		}
	}
	return false
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "file"
	}
	return name
}

func attachmentValue(a domain.Attachments, field string) *string {
	switch field {
	case "foto":
		return a.Foto
	case "kartu_keluarga":
		return a.KartuKeluarga
	case "hasil_diagnosis":
		return a.HasilDiagnosis
	}
	return nil
}

func setAttachment(a *domain.Attachments, field, storedName string) {
	switch field {
	case "foto":
		a.Foto = &storedName
	case "kartu_keluarga":
		a.KartuKeluarga = &storedName
	case "hasil_diagnosis":
		a.HasilDiagnosis = &storedName
	}
}

// applyFields deep-merges the payload onto the record through its JSON form.
// Explicit nulls clear the target key so attachment deletes survive the merge.
func applyFields(record domain.CaseRecord, fields map[string]any) (domain.CaseRecord, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return domain.CaseRecord{}, fmt.Errorf("encode record: %w", err)
	}
	var current map[string]any
	if err := json.Unmarshal(raw, &current); err != nil {
		return domain.CaseRecord{}, fmt.Errorf("decode record: %w", err)
	}
	mergeMap(current, fields)
	merged, err := json.Marshal(current)
	if err != nil {
		return domain.CaseRecord{}, fmt.Errorf("encode merged: %w", err)
	}
	var out domain.CaseRecord
	if err := json.Unmarshal(merged, &out); err != nil {
		return domain.CaseRecord{}, domain.ValidationError{Message: fmt.Sprintf("payload does not match record shape: %v", err)}
	}
	return out, nil
}

func mergeMap(dst, src map[string]any) {
	for key, value := range src {
		if value == nil {
			dst[key] = nil
			continue
		}
		if sub, ok := value.(map[string]any); ok {
			target, ok := dst[key].(map[string]any)
			if !ok {
				target = make(map[string]any, len(sub))
			}
			mergeMap(target, sub)
			dst[key] = target
			continue
		}
		dst[key] = value
	}
}

func mintSubRecordIDs(record *domain.CaseRecord) {
	ensure := func(id *string) {
		if *id == "" {
			*id = uuid.NewString()
		}
	}
	ensure(&record.Ayah.ID)
	ensure(&record.Ibu.ID)
	ensure(&record.RiwayatKehamilan.ID)
	ensure(&record.RiwayatKelahiran.ID)
	ensure(&record.RiwayatImunisasi.ID)
	ensure(&record.RiwayatPenyakit.ID)
	ensure(&record.PerkembanganFisik.ID)
	ensure(&record.PerkembanganBahasa.ID)
	ensure(&record.Kemandirian.ID)
	record.Ayah.AnakID = record.ID
	record.Ibu.AnakID = record.ID
	record.RiwayatKehamilan.AnakID = record.ID
	record.RiwayatKelahiran.AnakID = record.ID
	record.RiwayatImunisasi.AnakID = record.ID
	record.RiwayatPenyakit.AnakID = record.ID
	record.PerkembanganFisik.AnakID = record.ID
	record.PerkembanganBahasa.AnakID = record.ID
	record.Kemandirian.AnakID = record.ID
	record.AyahID = record.Ayah.ID
	record.IbuID = record.Ibu.ID
}

var serverOwnedKeys = map[string]struct{}{
	"id":         {},
	"anak_id":    {},
	"ayah_id":    {},
	"ibu_id":     {},
	"created_at": {},
	"updated_at": {},
}

var enumValues = map[string][]string{
	"status":           {string(domain.StatusAktif), string(domain.StatusSelesai), string(domain.StatusBerhenti)},
	"jenis_kelamin":    {string(domain.SexLakiLaki), string(domain.SexPerempuan)},
	"hubungan_darah":   {string(domain.RelationKandung), string(domain.RelationTiri), string(domain.RelationAngkat)},
	"proses_kelahiran": {string(domain.BirthNormal), string(domain.BirthCaesar), string(domain.BirthVakum)},
}

// validateFields enforces the server contract a sanitized payload already
// honors: no server-owned keys, no empty strings, valid dates and enums.
func validateFields(fields map[string]any, prefix string) error {
	for key, value := range fields {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if _, owned := serverOwnedKeys[key]; owned {
			return domain.ValidationError{Field: path, Message: "field is server-owned"}
		}
		switch v := value.(type) {
		case nil:
			// Explicit null is only meaningful for attachment fields.
		case string:
			if strings.TrimSpace(v) == "" {
				return domain.ValidationError{Field: path, Message: "empty values must be omitted"}
			}
			if key == "tanggal_lahir" && !dateparts.Valid(v) {
				return domain.ValidationError{Field: path, Message: "invalid date"}
			}
			if allowed, ok := enumValues[key]; ok && !contains(allowed, v) {
				return domain.ValidationError{Field: path, Message: "value not allowed"}
			}
		case map[string]any:
			if err := validateFields(v, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
