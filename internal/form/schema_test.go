package form

import "testing"

func TestCaseRecordSchemaDeclaresCoreFields(t *testing.T) {
	schema := CaseRecordSchema()
	cases := map[string]FieldKind{
		"status":                             KindEnum,
		"jenis_kelamin":                      KindEnum,
		"tanggal_lahir":                      KindDate,
		"ayah.tanggal_lahir":                 KindDate,
		"usia":                               KindNumber,
		"keluhan":                            KindTags,
		"kesukaan":                           KindTags,
		"lampiran.foto":                      KindAttachment,
		"lampiran.kartu_keluarga":            KindAttachment,
		"lampiran.hasil_diagnosis":           KindAttachment,
		"riwayat_kelahiran.proses_kelahiran": KindEnum,
	}
	for path, kind := range cases {
		spec, ok := schema.Spec(path)
		if !ok {
			t.Fatalf("missing field %s", path)
		}
		if spec.Kind != kind {
			t.Fatalf("field %s: %s, want %s", path, spec.Kind, kind)
		}
	}
	if spec, _ := schema.Spec("kesukaan"); !spec.Joined {
		t.Fatalf("kesukaan must serialize joined")
	}
	if spec, _ := schema.Spec("keluhan"); spec.Joined {
		t.Fatalf("keluhan must serialize as an array")
	}
}

func TestCaseRecordSchemaStripKeys(t *testing.T) {
	schema := CaseRecordSchema()
	for _, key := range []string{"id", "anak_id", "ayah_id", "ibu_id", "created_at", "updated_at"} {
		if !schema.Stripped(key) {
			t.Fatalf("%s must be stripped", key)
		}
	}
	if schema.Stripped("nama") {
		t.Fatalf("nama is client-editable")
	}
}

func TestTagFieldsSorted(t *testing.T) {
	got := CaseRecordSchema().TagFields()
	if len(got) != 2 || got[0] != "keluhan" || got[1] != "kesukaan" {
		t.Fatalf("tag fields: %v", got)
	}
}
