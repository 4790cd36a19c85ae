// Package form implements the hierarchical form synchronization and
// sanitization engine behind the add/edit case-record screens: path-based
// buffer mutation, derived-field recomputation, tag-collection sync, the
// pre-submission sanitization pipeline, attachment upload coordination, and
// the edit-session state machine that ties them together.
package form

import (
	"anakcore/pkg/domain"
	"sort"
)

// FieldKind classifies how the sanitizer treats a field.
type FieldKind string

// Field kinds understood by the sanitization pipeline.
const (
	// KindString trims and omits empty strings.
	KindString FieldKind = "string"
	// KindNumber coerces to a number or omits.
	KindNumber FieldKind = "number"
	// KindDate re-validates through the date codec or omits.
	KindDate FieldKind = "date"
	// KindEnum upper-cases and checks an allow-list, omitting outsiders.
	KindEnum FieldKind = "enum"
	// KindTags is an ordered unique string list.
	KindTags FieldKind = "tags"
	// KindAttachment preserves explicit null (delete-on-server).
	KindAttachment FieldKind = "attachment"
)

// FieldSpec describes one leaf field of the edit buffer.
type FieldSpec struct {
	Kind FieldKind `json:"kind"`
	// Allowed lists valid values for KindEnum fields.
	Allowed []string `json:"allowed,omitempty"`
	// Joined marks a KindTags field whose wire form is a comma-joined string
	// rather than a JSON array.
	Joined bool `json:"joined,omitempty"`
}

// Schema maps dot paths to field specs and names the server-owned keys the
// sanitizer strips from every sub-record.
type Schema struct {
	Fields    map[string]FieldSpec `json:"fields"`
	StripKeys []string             `json:"strip_keys"`
}

// Spec returns the spec for a dot path, if declared.
func (s Schema) Spec(path string) (FieldSpec, bool) {
	spec, ok := s.Fields[path]
	return spec, ok
}

// Stripped reports whether key is server-owned and must never be submitted.
func (s Schema) Stripped(key string) bool {
	for _, k := range s.StripKeys {
		if k == key {
			return true
		}
	}
	return false
}

// TagFields returns the declared tag-field paths in sorted order.
func (s Schema) TagFields() []string {
	var out []string
	for path, spec := range s.Fields {
		if spec.Kind == KindTags {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// CaseRecordSchema describes the case-record edit buffer: field kinds, enum
// allow-lists, tag representations, and the server-owned key strip set.
func CaseRecordSchema() Schema {
	enums := func(vals ...string) []string { return vals }
	fields := map[string]FieldSpec{
		"status":         {Kind: KindEnum, Allowed: enums(string(domain.StatusAktif), string(domain.StatusSelesai), string(domain.StatusBerhenti))},
		"jenis_kelamin":  {Kind: KindEnum, Allowed: enums(string(domain.SexLakiLaki), string(domain.SexPerempuan))},
		"tanggal_lahir":  {Kind: KindDate},
		"usia":           {Kind: KindNumber},
		"anak_ke":        {Kind: KindNumber},
		"jumlah_saudara": {Kind: KindNumber},

		"keluhan":  {Kind: KindTags},
		"kesukaan": {Kind: KindTags, Joined: true},

		"ayah.tanggal_lahir":  {Kind: KindDate},
		"ayah.usia":           {Kind: KindNumber},
		"ayah.hubungan_darah": {Kind: KindEnum, Allowed: enums(string(domain.RelationKandung), string(domain.RelationTiri), string(domain.RelationAngkat))},
		"ibu.tanggal_lahir":   {Kind: KindDate},
		"ibu.usia":            {Kind: KindNumber},
		"ibu.hubungan_darah":  {Kind: KindEnum, Allowed: enums(string(domain.RelationKandung), string(domain.RelationTiri), string(domain.RelationAngkat))},

		"riwayat_kehamilan.usia_ibu": {Kind: KindNumber},

		"riwayat_kelahiran.proses_kelahiran": {Kind: KindEnum, Allowed: enums(string(domain.BirthNormal), string(domain.BirthCaesar), string(domain.BirthVakum))},
		"riwayat_kelahiran.usia_kandungan":   {Kind: KindNumber},
		"riwayat_kelahiran.berat_lahir":      {Kind: KindNumber},
		"riwayat_kelahiran.panjang_lahir":    {Kind: KindNumber},

		"riwayat_penyakit.usia_saat": {Kind: KindNumber},

		"perkembangan_fisik.tengkurap": {Kind: KindNumber},
		"perkembangan_fisik.duduk":     {Kind: KindNumber},
		"perkembangan_fisik.merangkak": {Kind: KindNumber},
		"perkembangan_fisik.berdiri":   {Kind: KindNumber},
		"perkembangan_fisik.berjalan":  {Kind: KindNumber},

		"perkembangan_bahasa.mengoceh":     {Kind: KindNumber},
		"perkembangan_bahasa.kata_pertama": {Kind: KindNumber},
		"perkembangan_bahasa.kalimat":      {Kind: KindNumber},
	}
	for _, field := range domain.AttachmentFields() {
		fields["lampiran."+field] = FieldSpec{Kind: KindAttachment}
	}
	return Schema{
		Fields:    fields,
		StripKeys: []string{"id", "anak_id", "ayah_id", "ibu_id", "created_at", "updated_at"},
	}
}
