package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const patientColumns = `id, external_id, name, section, notes, doctor_id, created_at`

const sessionColumns = `id, patient_id, session_date, weight, waist_before, waist_after,
	belly_before, belly_after, hip, arms, thighs, notes, created_at`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.ExternalID = uuid.NewString()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, external_id, name, section, notes, doctor_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.ExternalID, p.Name, p.Section, p.Notes, p.DoctorID,
	)
	return err
}

func (r *repoPG) GetByExternalID(ctx context.Context, externalID string) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE external_id = $1`, externalID,
	).Scan(&p.ID, &p.ExternalID, &p.Name, &p.Section, &p.Notes, &p.DoctorID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+patientColumns+` FROM patient
		 WHERE doctor_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	patients, err := collectPatients(rows)
	return patients, total, err
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+patientColumns+` FROM patient ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	patients, err := collectPatients(rows)
	return patients, total, err
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.Name, &p.Section,
			&p.Notes, &p.DoctorID, &p.CreatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, &p)
	}
	return patients, rows.Err()
}

func (r *repoPG) CreateSession(ctx context.Context, s *Session) error {
	s.ID = uuid.New()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO measurement_session
			(id, patient_id, session_date, weight, waist_before, waist_after,
			 belly_before, belly_after, hip, arms, thighs, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.PatientID, s.SessionDate, s.Weight, s.WaistBefore, s.WaistAfter,
		s.BellyBefore, s.BellyAfter, s.Hip, s.Arms, s.Thighs, s.Notes,
	)
	return err
}

func (r *repoPG) ListSessions(ctx context.Context, patientID uuid.UUID) ([]*Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM measurement_session
		 WHERE patient_id = $1 ORDER BY session_date DESC, created_at DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.PatientID, &s.SessionDate, &s.Weight,
			&s.WaistBefore, &s.WaistAfter, &s.BellyBefore, &s.BellyAfter,
			&s.Hip, &s.Arms, &s.Thighs, &s.Notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// GetAssessment returns nil without error when the patient has no assessment
// yet; absence is a normal state, not a failure.
func (r *repoPG) GetAssessment(ctx context.Context, patientID uuid.UUID) (*Assessment, error) {
	var a Assessment
	err := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, medical_history, dietary_habits, activity_level, goal, pregnancy
		FROM nutrition_assessment WHERE patient_id = $1`, patientID,
	).Scan(&a.ID, &a.PatientID, &a.MedicalHistory, &a.DietaryHabits,
		&a.ActivityLevel, &a.Goal, &a.Pregnancy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) UpsertAssessment(ctx context.Context, a *Assessment) error {
	a.ID = uuid.New()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO nutrition_assessment
			(id, patient_id, medical_history, dietary_habits, activity_level, goal, pregnancy)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (patient_id) DO UPDATE SET
			medical_history = EXCLUDED.medical_history,
			dietary_habits  = EXCLUDED.dietary_habits,
			activity_level  = EXCLUDED.activity_level,
			goal            = EXCLUDED.goal,
			pregnancy       = EXCLUDED.pregnancy`,
		a.ID, a.PatientID, a.MedicalHistory, a.DietaryHabits,
		a.ActivityLevel, a.Goal, a.Pregnancy,
	)
	return err
}
