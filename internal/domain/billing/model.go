package billing

import (
	"time"

	"github.com/google/uuid"
)

const StatusPaid = "paid"

// Invoice is a flat per-visit charge recorded after payment. There is no
// outstanding-balance state; every invoice is created already paid.
type Invoice struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"-"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
