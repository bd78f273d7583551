package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a clinic record owned by exactly one doctor. ExternalID is the
// stable random token used in URLs so database ids never leak.
type Patient struct {
	ID         uuid.UUID `db:"id" json:"-"`
	ExternalID string    `db:"external_id" json:"patient_id"`
	Name       string    `db:"name" json:"name"`
	Section    string    `db:"section" json:"section"`
	Notes      string    `db:"notes" json:"notes,omitempty"`
	DoctorID   uuid.UUID `db:"doctor_id" json:"doctor_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Session is one visit's body measurements. Rows are append-only; there is
// no update or delete path.
type Session struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"-"`
	SessionDate time.Time `db:"session_date" json:"session_date"`
	Weight      float64   `db:"weight" json:"weight"`
	WaistBefore float64   `db:"waist_before" json:"waist_before"`
	WaistAfter  float64   `db:"waist_after" json:"waist_after"`
	BellyBefore float64   `db:"belly_before" json:"belly_before"`
	BellyAfter  float64   `db:"belly_after" json:"belly_after"`
	Hip         float64   `db:"hip" json:"hip"`
	Arms        float64   `db:"arms" json:"arms"`
	Thighs      float64   `db:"thighs" json:"thighs"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Assessment is the one-to-one nutrition intake questionnaire for a patient.
type Assessment struct {
	ID             uuid.UUID `db:"id" json:"-"`
	PatientID      uuid.UUID `db:"patient_id" json:"-"`
	MedicalHistory string    `db:"medical_history" json:"medical_history,omitempty"`
	DietaryHabits  string    `db:"dietary_habits" json:"dietary_habits,omitempty"`
	ActivityLevel  string    `db:"activity_level" json:"activity_level,omitempty"`
	Goal           string    `db:"goal" json:"goal,omitempty"`
	Pregnancy      string    `db:"pregnancy" json:"pregnancy,omitempty"`
}

// Detail is the single-patient view: the record plus everything logged
// against it, sessions newest first.
type Detail struct {
	Patient    *Patient    `json:"patient"`
	Sessions   []*Session  `json:"sessions"`
	Assessment *Assessment `json:"assessment,omitempty"`
}
