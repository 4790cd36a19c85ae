// Package domain defines the persistent case-record entities, value types,
// and repository contract used by anakcore.
package domain

import "time"

// CaseStatus enumerates therapy case workflow states.
type CaseStatus string

// Canonical case statuses accepted by the backend.
const (
	// StatusAktif marks a case currently in therapy.
	StatusAktif CaseStatus = "AKTIF"
	// StatusSelesai marks a case whose therapy program completed.
	StatusSelesai  CaseStatus = "SELESAI"
	StatusBerhenti CaseStatus = "BERHENTI"
)

// Sex enumerates the child's registered sex.
type Sex string

// Canonical sex values accepted by the backend.
const (
	SexLakiLaki  Sex = "LAKI-LAKI"
	SexPerempuan Sex = "PEREMPUAN"
)

// BloodRelation enumerates how a registered parent relates to the child.
type BloodRelation string

// Canonical blood-relation categories for parent sub-records.
const (
	RelationKandung BloodRelation = "KANDUNG"
	RelationTiri    BloodRelation = "TIRI"
	RelationAngkat  BloodRelation = "ANGKAT"
)

// BirthProcess enumerates delivery methods recorded in the birth history.
type BirthProcess string

// Canonical delivery methods.
const (
	BirthNormal BirthProcess = "NORMAL"
	BirthCaesar BirthProcess = "CAESAR"
	BirthVakum  BirthProcess = "VAKUM"
)

// Base contains common fields for server-owned records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CaseRecord is the full case entity edited through the record forms: the
// child's biodata plus parent and medical/developmental sub-records.
// Date fields hold ISO YYYY-MM-DD strings; empty means not filled.
type CaseRecord struct {
	Base
	NomorKasus    string     `json:"nomor_kasus"`
	Status        CaseStatus `json:"status"`
	Nama          string     `json:"nama"`
	NamaPanggilan string     `json:"nama_panggilan"`
	JenisKelamin  Sex        `json:"jenis_kelamin"`
	TempatLahir   string     `json:"tempat_lahir"`
	TanggalLahir  string     `json:"tanggal_lahir"`
	Usia          int        `json:"usia"`
	AnakKe        *int       `json:"anak_ke,omitempty"`
	JumlahSaudara *int       `json:"jumlah_saudara,omitempty"`
	Agama         string     `json:"agama"`
	Alamat        string     `json:"alamat"`
	Sekolah       string     `json:"sekolah"`
	Diagnosis     string     `json:"diagnosis"`

	// Keluhan is the canonical array form of a tag field; Kesukaan keeps the
	// legacy comma-joined representation expected by the backend.
	Keluhan  []string `json:"keluhan"`
	Kesukaan string   `json:"kesukaan"`

	// Server-owned cross references to the parent sub-records.
	AyahID string `json:"ayah_id,omitempty"`
	IbuID  string `json:"ibu_id,omitempty"`

	Ayah Parent `json:"ayah"`
	Ibu  Parent `json:"ibu"`

	RiwayatKehamilan   PregnancyHistory    `json:"riwayat_kehamilan"`
	RiwayatKelahiran   BirthHistory        `json:"riwayat_kelahiran"`
	RiwayatImunisasi   ImmunizationHistory `json:"riwayat_imunisasi"`
	RiwayatPenyakit    IllnessHistory      `json:"riwayat_penyakit"`
	PerkembanganFisik  PhysicalMilestones  `json:"perkembangan_fisik"`
	PerkembanganBahasa LanguageMilestones  `json:"perkembangan_bahasa"`
	Kemandirian        SelfCareProfile     `json:"kemandirian"`

	Lampiran Attachments `json:"lampiran"`
}

// Parent is the sub-record describing the registered father or mother.
type Parent struct {
	ID            string        `json:"id,omitempty"`
	AnakID        string        `json:"anak_id,omitempty"`
	Nama          string        `json:"nama"`
	TanggalLahir  string        `json:"tanggal_lahir"`
	Usia          int           `json:"usia"`
	Pekerjaan     string        `json:"pekerjaan"`
	Pendidikan    string        `json:"pendidikan"`
	HubunganDarah BloodRelation `json:"hubungan_darah"`
	Telepon       string        `json:"telepon"`
}

// PregnancyHistory captures the mother's condition while carrying the child.
type PregnancyHistory struct {
	ID      string `json:"id,omitempty"`
	AnakID  string `json:"anak_id,omitempty"`
	UsiaIbu *int   `json:"usia_ibu,omitempty"`
	Keluhan string `json:"keluhan"`
	Obat    string `json:"obat"`
	Catatan string `json:"catatan"`
}

// BirthHistory captures delivery details.
type BirthHistory struct {
	ID              string       `json:"id,omitempty"`
	AnakID          string       `json:"anak_id,omitempty"`
	Tempat          string       `json:"tempat"`
	Penolong        string       `json:"penolong"`
	ProsesKelahiran BirthProcess `json:"proses_kelahiran"`
	UsiaKandungan   *int         `json:"usia_kandungan,omitempty"`
	BeratLahir      *float64     `json:"berat_lahir,omitempty"`
	PanjangLahir    *float64     `json:"panjang_lahir,omitempty"`
}

// ImmunizationHistory records which immunizations the child received.
type ImmunizationHistory struct {
	ID      string `json:"id,omitempty"`
	AnakID  string `json:"anak_id,omitempty"`
	Lengkap string `json:"lengkap"`
	Catatan string `json:"catatan"`
}

// IllnessHistory records significant past illnesses.
type IllnessHistory struct {
	ID        string `json:"id,omitempty"`
	AnakID    string `json:"anak_id,omitempty"`
	Penyakit  string `json:"penyakit"`
	UsiaSaat  *int   `json:"usia_saat,omitempty"`
	Perawatan string `json:"perawatan"`
}

// PhysicalMilestones records gross-motor milestones in months of age.
type PhysicalMilestones struct {
	ID        string `json:"id,omitempty"`
	AnakID    string `json:"anak_id,omitempty"`
	Tengkurap *int   `json:"tengkurap,omitempty"`
	Duduk     *int   `json:"duduk,omitempty"`
	Merangkak *int   `json:"merangkak,omitempty"`
	Berdiri   *int   `json:"berdiri,omitempty"`
	Berjalan  *int   `json:"berjalan,omitempty"`
}

// LanguageMilestones records language milestones in months of age.
type LanguageMilestones struct {
	ID          string `json:"id,omitempty"`
	AnakID      string `json:"anak_id,omitempty"`
	Mengoceh    *int   `json:"mengoceh,omitempty"`
	KataPertama *int   `json:"kata_pertama,omitempty"`
	Kalimat     *int   `json:"kalimat,omitempty"`
}

// SelfCareProfile records daily-living independence notes.
type SelfCareProfile struct {
	ID             string `json:"id,omitempty"`
	AnakID         string `json:"anak_id,omitempty"`
	MakanSendiri   string `json:"makan_sendiri"`
	Berpakaian     string `json:"berpakaian"`
	ToiletTraining string `json:"toilet_training"`
	Catatan        string `json:"catatan"`
}

// Attachments holds server-confirmed stored filenames per attachment field.
// Pointer semantics match the wire contract: nil pointer means untouched,
// explicit null in a payload means delete-on-server.
type Attachments struct {
	Foto           *string `json:"foto,omitempty"`
	KartuKeluarga  *string `json:"kartu_keluarga,omitempty"`
	HasilDiagnosis *string `json:"hasil_diagnosis,omitempty"`
}

// AttachmentFields lists the attachment field names in the order create-mode
// flushes upload them.
func AttachmentFields() []string {
	return []string{"foto", "hasil_diagnosis", "kartu_keluarga"}
}
