package billing

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/clinio/clinio/internal/platform/session"
)

// ValidationError marks user-correctable input problems. Handlers show its
// message; any other error stays internal and surfaces as a 500.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// PatientResolver checks that the actor may touch the patient behind an
// external id. The patient service implements it.
type PatientResolver interface {
	Resolve(ctx context.Context, actor session.Principal, externalID string) (patientID, doctorID uuid.UUID, err error)
}

type Service struct {
	repo     Repository
	patients PatientResolver
}

func NewService(repo Repository, patients PatientResolver) *Service {
	return &Service{repo: repo, patients: patients}
}

// Create records a paid invoice against the patient. Amount comes from the
// form as a string; it must parse as a positive number.
func (s *Service) Create(ctx context.Context, actor session.Principal, patientExternalID, amount string) (*Invoice, error) {
	patientID, doctorID, err := s.patients.Resolve(ctx, actor, patientExternalID)
	if err != nil {
		return nil, err
	}

	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return nil, ValidationError("amount is not a number")
	}
	if value <= 0 {
		return nil, ValidationError("amount must be positive")
	}

	inv := &Invoice{
		PatientID: patientID,
		DoctorID:  doctorID,
		Amount:    value,
		Status:    StatusPaid,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) ListForPatient(ctx context.Context, actor session.Principal, patientExternalID string) ([]*Invoice, error) {
	patientID, _, err := s.patients.Resolve(ctx, actor, patientExternalID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}
