package form

import (
	"encoding/json"
	"fmt"

	"anakcore/pkg/domain"
)

// EntityBuffer converts a canonical record into a fresh edit buffer. The
// conversion goes through JSON so the buffer mirrors the wire shape the
// sanitizer and repository agree on.
func EntityBuffer(record domain.CaseRecord) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var buffer map[string]any
	if err := json.Unmarshal(raw, &buffer); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return buffer, nil
}

// EmptyBuffer returns the hardcoded empty-entity template used by the create
// flow: every editable sub-record present with blank leaves so path mutation
// does not have to invent structure mid-edit.
func EmptyBuffer() map[string]any {
	parent := func() map[string]any {
		return map[string]any{
			"nama":           "",
			"tanggal_lahir":  "",
			"usia":           "",
			"pekerjaan":      "",
			"pendidikan":     "",
			"hubungan_darah": "",
			"telepon":        "",
		}
	}
	return map[string]any{
		"nomor_kasus":    "",
		"status":         "",
		"nama":           "",
		"nama_panggilan": "",
		"jenis_kelamin":  "",
		"tempat_lahir":   "",
		"tanggal_lahir":  "",
		"usia":           "",
		"anak_ke":        "",
		"jumlah_saudara": "",
		"agama":          "",
		"alamat":         "",
		"sekolah":        "",
		"diagnosis":      "",
		"keluhan":        []string{},
		"kesukaan":       "",
		"ayah":           parent(),
		"ibu":            parent(),
		"riwayat_kehamilan": map[string]any{
			"usia_ibu": "",
			"keluhan":  "",
			"obat":     "",
			"catatan":  "",
		},
		"riwayat_kelahiran": map[string]any{
			"tempat":           "",
			"penolong":         "",
			"proses_kelahiran": "",
			"usia_kandungan":   "",
			"berat_lahir":      "",
			"panjang_lahir":    "",
		},
		"riwayat_imunisasi": map[string]any{
			"lengkap": "",
			"catatan": "",
		},
		"riwayat_penyakit": map[string]any{
			"penyakit":  "",
			"usia_saat": "",
			"perawatan": "",
		},
		"perkembangan_fisik": map[string]any{
			"tengkurap": "",
			"duduk":     "",
			"merangkak": "",
			"berdiri":   "",
			"berjalan":  "",
		},
		"perkembangan_bahasa": map[string]any{
			"mengoceh":     "",
			"kata_pertama": "",
			"kalimat":      "",
		},
		"kemandirian": map[string]any{
			"makan_sendiri":   "",
			"berpakaian":      "",
			"toilet_training": "",
			"catatan":         "",
		},
		"lampiran": map[string]any{},
	}
}

// attachmentNames extracts the stored filename pointers from a record for
// coordinator hydration.
func attachmentNames(record domain.CaseRecord) map[string]*string {
	return map[string]*string{
		"foto":            record.Lampiran.Foto,
		"kartu_keluarga":  record.Lampiran.KartuKeluarga,
		"hasil_diagnosis": record.Lampiran.HasilDiagnosis,
	}
}
