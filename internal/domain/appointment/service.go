package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinio/clinio/internal/platform/session"
)

// dateTimeLayouts are the accepted forms of the appointment time field, the
// HTML datetime-local format first.
var dateTimeLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04"}

// ValidationError marks user-correctable input problems. Handlers show its
// message; any other error stays internal and surfaces as a 500.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// PatientResolver checks that the actor may touch the patient behind an
// external id and returns the internal ids appointments attach to. The
// patient service implements it.
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

// CreateInput carries the schedule-appointment form fields.
type CreateInput struct {
	DateTime string
	Notes    string
}

func (s *Service) Create(ctx context.Context, actor session.Principal, patientExternalID string, in CreateInput) (*Appointment, error) {
	patientID, doctorID, err := s.patients.Resolve(ctx, actor, patientExternalID)
	if err != nil {
		return nil, err
	}

	var when time.Time
	var parseErr error
	for _, layout := range dateTimeLayouts {
		when, parseErr = time.Parse(layout, in.DateTime)
		if parseErr == nil {
			break
		}
	}
	if parseErr != nil {
		return nil, ValidationError("date_time must be YYYY-MM-DDTHH:MM")
	}

	a := &Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		DateTime:  when,
		Status:    StatusScheduled,
		Notes:     in.Notes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListForPatient(ctx context.Context, actor session.Principal, patientExternalID string) ([]*Appointment, error) {
	patientID, _, err := s.patients.Resolve(ctx, actor, patientExternalID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// SetStatus moves a scheduled appointment to completed or canceled. Only the
// owning doctor, or an admin, may change it, and a final status never moves
// again.
func (s *Service) SetStatus(ctx context.Context, actor session.Principal, id uuid.UUID, status string) (*Appointment, error) {
	if status != StatusCompleted && status != StatusCanceled {
		return nil, ErrBadStatus
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && a.DoctorID != actor.ID {
		return nil, ErrForbidden
	}
	if a.Status != StatusScheduled {
		return nil, ErrFinal
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	return a, nil
}
