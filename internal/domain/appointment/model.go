package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Appointment is a scheduled visit. Status moves from scheduled to exactly
// one of completed or canceled; there is no way back.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"-"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DateTime  time.Time `db:"date_time" json:"date_time"`
	Status    string    `db:"status" json:"status"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
