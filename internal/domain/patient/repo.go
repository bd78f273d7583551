package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("patient not found")
	ErrForbidden = errors.New("patient belongs to another doctor")
	ErrBadDate   = errors.New("date must be YYYY-MM-DD")
)

// Repository defines the persistence interface for patients and the records
// hanging off them.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByExternalID(ctx context.Context, externalID string) (*Patient, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Patient, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Patient, int, error)

	CreateSession(ctx context.Context, s *Session) error
	ListSessions(ctx context.Context, patientID uuid.UUID) ([]*Session, error)

	GetAssessment(ctx context.Context, patientID uuid.UUID) (*Assessment, error)
	UpsertAssessment(ctx context.Context, a *Assessment) error
}
