package patient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinio/clinio/internal/platform/session"
)

const dateLayout = "2006-01-02"

// ValidationError marks user-correctable input problems. Handlers show its
// message; any other error stays internal and surfaces as a 500.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// DoctorRef identifies a doctor account for admin patient assignment.
type DoctorRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
}

// DoctorDirectory resolves doctor accounts for admin assignment. The doctor
// service implements it through an adapter in the server wiring.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	ListDoctors(ctx context.Context, limit, offset int) ([]DoctorRef, int, error)
}

type Service struct {
	repo    Repository
	doctors DoctorDirectory
}

func NewService(repo Repository, doctors DoctorDirectory) *Service {
	return &Service{repo: repo, doctors: doctors}
}

// CreateInput carries the add-patient form fields. DoctorID is honored only
// for admins; everyone else creates patients under their own account.
type CreateInput struct {
	Name     string
	Section  string
	Notes    string
	DoctorID string
}

func (s *Service) Create(ctx context.Context, actor session.Principal, in CreateInput) (*Patient, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ValidationError("name is required")
	}
	if strings.TrimSpace(in.Section) == "" {
		return nil, ValidationError("section is required")
	}

	ownerID := actor.ID
	if actor.IsAdmin() && in.DoctorID != "" {
		id, err := uuid.Parse(in.DoctorID)
		if err != nil {
			return nil, ValidationError("doctor_id is not a valid id")
		}
		exists, err := s.doctors.DoctorExists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("look up doctor: %w", err)
		}
		if !exists {
			return nil, ValidationError("doctor_id does not match an existing doctor")
		}
		ownerID = id
	}

	p := &Patient{
		Name:     strings.TrimSpace(in.Name),
		Section:  strings.TrimSpace(in.Section),
		Notes:    in.Notes,
		DoctorID: ownerID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Doctors lists the accounts an admin can assign a new patient to.
func (s *Service) Doctors(ctx context.Context, limit, offset int) ([]DoctorRef, int, error) {
	return s.doctors.ListDoctors(ctx, limit, offset)
}

// ListForPrincipal returns the patients the actor may see, newest first.
// Admins see every doctor's patients; doctors see only their own.
func (s *Service) ListForPrincipal(ctx context.Context, actor session.Principal, limit, offset int) ([]*Patient, int, error) {
	if actor.IsAdmin() {
		return s.repo.ListAll(ctx, limit, offset)
	}
	return s.repo.ListByDoctor(ctx, actor.ID, limit, offset)
}

// authorize loads the patient and enforces ownership. The not-found and
// forbidden cases stay distinct so handlers can render 404 versus redirect.
func (s *Service) authorize(ctx context.Context, actor session.Principal, externalID string) (*Patient, error) {
	p, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.DoctorID != actor.ID {
		return nil, ErrForbidden
	}
	return p, nil
}

// Resolve performs the ownership check on behalf of other domains and hands
// back the internal ids they need to attach records to the patient.
func (s *Service) Resolve(ctx context.Context, actor session.Principal, externalID string) (patientID, doctorID uuid.UUID, err error) {
	p, err := s.authorize(ctx, actor, externalID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return p.ID, p.DoctorID, nil
}

func (s *Service) Get(ctx context.Context, actor session.Principal, externalID string) (*Detail, error) {
	p, err := s.authorize(ctx, actor, externalID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.repo.ListSessions(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.repo.GetAssessment(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Patient: p, Sessions: sessions, Assessment: assessment}, nil
}

// SessionInput carries the measurement form fields as submitted. Numeric
// fields are strings here because blank inputs mean zero, not an error.
type SessionInput struct {
	Date        string
	Weight      string
	WaistBefore string
	WaistAfter  string
	BellyBefore string
	BellyAfter  string
	Hip         string
	Arms        string
	Thighs      string
	Notes       string
}

func (s *Service) AddSession(ctx context.Context, actor session.Principal, externalID string, in SessionInput) (*Session, error) {
	p, err := s.authorize(ctx, actor, externalID)
	if err != nil {
		return nil, err
	}

	day, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, ErrBadDate
	}

	sess := &Session{PatientID: p.ID, SessionDate: day, Notes: in.Notes}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"weight", in.Weight, &sess.Weight},
		{"waist_before", in.WaistBefore, &sess.WaistBefore},
		{"waist_after", in.WaistAfter, &sess.WaistAfter},
		{"belly_before", in.BellyBefore, &sess.BellyBefore},
		{"belly_after", in.BellyAfter, &sess.BellyAfter},
		{"hip", in.Hip, &sess.Hip},
		{"arms", in.Arms, &sess.Arms},
		{"thighs", in.Thighs, &sess.Thighs},
	}
	for _, f := range fields {
		v, err := parseMeasure(f.raw)
		if err != nil {
			return nil, ValidationError(f.name + " is not a number")
		}
		*f.dst = v
	}

	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// parseMeasure treats a blank field as zero, matching a form submitted with
// measurements left empty.
func parseMeasure(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// AssessmentInput carries the nutrition questionnaire fields.
type AssessmentInput struct {
	MedicalHistory string
	DietaryHabits  string
	ActivityLevel  string
	Goal           string
	Pregnancy      string
}

func (s *Service) SaveAssessment(ctx context.Context, actor session.Principal, externalID string, in AssessmentInput) (*Assessment, error) {
	p, err := s.authorize(ctx, actor, externalID)
	if err != nil {
		return nil, err
	}

	a := &Assessment{
		PatientID:      p.ID,
		MedicalHistory: in.MedicalHistory,
		DietaryHabits:  in.DietaryHabits,
		ActivityLevel:  in.ActivityLevel,
		Goal:           in.Goal,
		Pregnancy:      in.Pregnancy,
	}
	if err := s.repo.UpsertAssessment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAssessment(ctx context.Context, actor session.Principal, externalID string) (*Assessment, error) {
	p, err := s.authorize(ctx, actor, externalID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetAssessment(ctx, p.ID)
}
