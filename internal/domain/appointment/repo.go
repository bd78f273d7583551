package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("appointment not found")
	ErrForbidden = errors.New("appointment belongs to another doctor")
	ErrBadStatus = errors.New("status must be completed or canceled")
	ErrFinal     = errors.New("appointment already completed or canceled")
)

// Repository defines the persistence interface for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
