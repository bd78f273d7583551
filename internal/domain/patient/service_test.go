package patient

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/clinio/clinio/internal/platform/session"
)

// memRepo is an in-memory Repository used by the package tests. Insertion
// order stands in for created_at so list order is deterministic.
type memRepo struct {
	mu          sync.Mutex
	patients    []*Patient
	sessions    map[uuid.UUID][]*Session
	assessments map[uuid.UUID]*Assessment
}

func newMemRepo() *memRepo {
	return &memRepo{
		sessions:    make(map[uuid.UUID][]*Session),
		assessments: make(map[uuid.UUID]*Assessment),
	}
}

func (m *memRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.ExternalID = uuid.NewString()
	cp := *p
	m.patients = append(m.patients, &cp)
	return nil
}

func (m *memRepo) GetByExternalID(_ context.Context, externalID string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) list(filter func(*Patient) bool, limit, offset int) ([]*Patient, int, error) {
	// newest first
	var matched []*Patient
	for i := len(m.patients) - 1; i >= 0; i-- {
		if p := m.patients[i]; filter(p) {
			matched = append(matched, p)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]*Patient, 0, end-offset)
	for _, p := range matched[offset:end] {
		cp := *p
		out = append(out, &cp)
	}
	return out, total, nil
}

func (m *memRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(p *Patient) bool { return p.DoctorID == doctorID }, limit, offset)
}

func (m *memRepo) ListAll(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(*Patient) bool { return true }, limit, offset)
}

func (m *memRepo) CreateSession(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	cp := *s
	m.sessions[s.PatientID] = append(m.sessions[s.PatientID], &cp)
	return nil
}

func (m *memRepo) ListSessions(_ context.Context, patientID uuid.UUID) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.sessions[patientID]
	out := make([]*Session, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		cp := *stored[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRepo) GetAssessment(_ context.Context, patientID uuid.UUID) (*Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[patientID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpsertAssessment(_ context.Context, a *Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.assessments[a.PatientID] = &cp
	return nil
}

// fakeDirectory knows a fixed set of doctor accounts.
type fakeDirectory struct {
	refs []DoctorRef
}

func (f *fakeDirectory) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	for _, r := range f.refs {
		if r.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) ListDoctors(_ context.Context, limit, offset int) ([]DoctorRef, int, error) {
	return f.refs, len(f.refs), nil
}

func newTestService() (*Service, *memRepo, *fakeDirectory) {
	repo := newMemRepo()
	dir := &fakeDirectory{}
	return NewService(repo, dir), repo, dir
}

func doctorPrincipal() session.Principal {
	return session.Principal{ID: uuid.New(), Username: "dr.a", Role: session.RoleDoctor, FullName: "Dr. A"}
}

func adminPrincipal() session.Principal {
	return session.Principal{ID: uuid.New(), Username: "master", Role: session.RoleAdmin}
}

func TestCreate_RequiresNameAndSection(t *testing.T) {
	svc, _, _ := newTestService()
	actor := doctorPrincipal()

	if _, err := svc.Create(context.Background(), actor, CreateInput{Section: "nutrition"}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := svc.Create(context.Background(), actor, CreateInput{Name: "Sara"}); err == nil {
		t.Error("expected error for missing section")
	}
	if _, err := svc.Create(context.Background(), actor, CreateInput{Name: "  ", Section: "nutrition"}); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestCreate_NonAdminAlwaysOwns(t *testing.T) {
	svc, _, _ := newTestService()
	actor := doctorPrincipal()
	other := uuid.New()

	p, err := svc.Create(context.Background(), actor, CreateInput{
		Name: "Sara", Section: "nutrition", DoctorID: other.String(),
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if p.DoctorID != actor.ID {
		t.Error("non-admin doctor_id input must be ignored")
	}
	if p.ExternalID == "" {
		t.Error("expected a generated external id")
	}
}

func TestCreate_AdminMayAssignDoctor(t *testing.T) {
	svc, _, dir := newTestService()
	admin := adminPrincipal()
	target := uuid.New()
	dir.refs = append(dir.refs, DoctorRef{ID: target, Username: "dr.b", FullName: "Dr. B"})

	p, err := svc.Create(context.Background(), admin, CreateInput{
		Name: "Sara", Section: "nutrition", DoctorID: target.String(),
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if p.DoctorID != target {
		t.Errorf("expected assignment to %s, got %s", target, p.DoctorID)
	}

	if _, err := svc.Create(context.Background(), admin, CreateInput{
		Name: "Sara", Section: "nutrition", DoctorID: "not-a-uuid",
	}); err == nil {
		t.Error("expected error for malformed doctor_id")
	}
}

func TestCreate_AdminAssignmentChecksDirectory(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := adminPrincipal()

	_, err := svc.Create(context.Background(), admin, CreateInput{
		Name: "Sara", Section: "nutrition", DoctorID: uuid.NewString(),
	})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error for an unknown doctor, got %v", err)
	}
	if len(repo.patients) != 0 {
		t.Error("patient must not persist when the doctor does not exist")
	}
}

func TestDoctors_ListsDirectory(t *testing.T) {
	svc, _, dir := newTestService()
	dir.refs = []DoctorRef{
		{ID: uuid.New(), Username: "dr.a", FullName: "Dr. A"},
		{ID: uuid.New(), Username: "dr.b", FullName: "Dr. B"},
	}

	refs, total, err := svc.Doctors(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Doctors() error: %v", err)
	}
	if total != 2 || len(refs) != 2 {
		t.Fatalf("expected 2 doctors, got total=%d", total)
	}
	if refs[0].Username != "dr.a" {
		t.Errorf("expected dr.a first, got %s", refs[0].Username)
	}
}

func TestGet_CrossDoctorInvisibility(t *testing.T) {
	svc, _, _ := newTestService()
	owner := doctorPrincipal()
	intruder := session.Principal{ID: uuid.New(), Username: "dr.b", Role: session.RoleDoctor}

	p, err := svc.Create(context.Background(), owner, CreateInput{Name: "Sara", Section: "nutrition"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := svc.Get(context.Background(), intruder, p.ExternalID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for foreign doctor, got %v", err)
	}
	if _, err := svc.Get(context.Background(), owner, p.ExternalID); err != nil {
		t.Errorf("owner must see the patient, got %v", err)
	}
	if _, err := svc.Get(context.Background(), owner, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestListForPrincipal_AdminSeesUnion(t *testing.T) {
	svc, _, _ := newTestService()
	drA := doctorPrincipal()
	drB := session.Principal{ID: uuid.New(), Username: "dr.b", Role: session.RoleDoctor}
	admin := adminPrincipal()

	for _, tc := range []struct {
		actor session.Principal
		name  string
	}{
		{drA, "First"},
		{drB, "Second"},
		{drA, "Third"},
	} {
		if _, err := svc.Create(context.Background(), tc.actor, CreateInput{Name: tc.name, Section: "general"}); err != nil {
			t.Fatalf("Create(%s) error: %v", tc.name, err)
		}
	}

	own, total, err := svc.ListForPrincipal(context.Background(), drA, 10, 0)
	if err != nil {
		t.Fatalf("ListForPrincipal() error: %v", err)
	}
	if total != 2 || len(own) != 2 {
		t.Fatalf("doctor A expected 2 patients, got %d", total)
	}
	if own[0].Name != "Third" || own[1].Name != "First" {
		t.Errorf("expected newest first, got %s then %s", own[0].Name, own[1].Name)
	}

	all, total, err := svc.ListForPrincipal(context.Background(), admin, 10, 0)
	if err != nil {
		t.Fatalf("ListForPrincipal() error: %v", err)
	}
	if total != 3 {
		t.Fatalf("admin expected 3 patients, got %d", total)
	}
	if all[0].Name != "Third" || all[2].Name != "First" {
		t.Errorf("expected newest first across doctors, got %s then %s", all[0].Name, all[2].Name)
	}
}

func TestAddSession_BadDatePersistsNothing(t *testing.T) {
	svc, repo, _ := newTestService()
	owner := doctorPrincipal()

	p, err := svc.Create(context.Background(), owner, CreateInput{Name: "Sara", Section: "nutrition"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	for _, bad := range []string{"", "20-01-2024", "2024/01/20", "not-a-date", "2024-13-40"} {
		_, err := svc.AddSession(context.Background(), owner, p.ExternalID, SessionInput{Date: bad})
		if !errors.Is(err, ErrBadDate) {
			t.Errorf("date %q: expected ErrBadDate, got %v", bad, err)
		}
	}

	if got := len(repo.sessions[p.ID]); got != 0 {
		t.Fatalf("expected no persisted sessions, found %d", got)
	}
}

func TestAddSession_BlankMeasurementsDefaultToZero(t *testing.T) {
	svc, _, _ := newTestService()
	owner := doctorPrincipal()

	p, err := svc.Create(context.Background(), owner, CreateInput{Name: "Sara", Section: "nutrition"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	sess, err := svc.AddSession(context.Background(), owner, p.ExternalID, SessionInput{
		Date:   "2024-01-20",
		Weight: "72.5",
		Hip:    " 101 ",
	})
	if err != nil {
		t.Fatalf("AddSession() error: %v", err)
	}
	if sess.Weight != 72.5 || sess.Hip != 101 {
		t.Errorf("parsed values wrong: weight=%v hip=%v", sess.Weight, sess.Hip)
	}
	if sess.WaistBefore != 0 || sess.Thighs != 0 {
		t.Error("blank measurements must default to zero")
	}

	if _, err := svc.AddSession(context.Background(), owner, p.ExternalID, SessionInput{
		Date: "2024-01-21", Weight: "heavy",
	}); err == nil {
		t.Error("expected error for non-numeric measurement")
	}
}

func TestAddSession_ForeignDoctorRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	owner := doctorPrincipal()
	intruder := session.Principal{ID: uuid.New(), Username: "dr.b", Role: session.RoleDoctor}

	p, err := svc.Create(context.Background(), owner, CreateInput{Name: "Sara", Section: "nutrition"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	_, err = svc.AddSession(context.Background(), intruder, p.ExternalID, SessionInput{Date: "2024-01-20"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(repo.sessions[p.ID]) != 0 {
		t.Error("intruder write must not persist")
	}
}

func TestSaveAssessment_UpsertsSingleRow(t *testing.T) {
	svc, _, _ := newTestService()
	owner := doctorPrincipal()

	p, err := svc.Create(context.Background(), owner, CreateInput{Name: "Sara", Section: "nutrition"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := svc.SaveAssessment(context.Background(), owner, p.ExternalID, AssessmentInput{
		Goal: "weight loss",
	}); err != nil {
		t.Fatalf("SaveAssessment() error: %v", err)
	}
	if _, err := svc.SaveAssessment(context.Background(), owner, p.ExternalID, AssessmentInput{
		Goal: "maintenance", ActivityLevel: "moderate",
	}); err != nil {
		t.Fatalf("second SaveAssessment() error: %v", err)
	}

	a, err := svc.GetAssessment(context.Background(), owner, p.ExternalID)
	if err != nil {
		t.Fatalf("GetAssessment() error: %v", err)
	}
	if a == nil || a.Goal != "maintenance" || a.ActivityLevel != "moderate" {
		t.Errorf("expected latest assessment values, got %+v", a)
	}
}

func TestResolve(t *testing.T) {
	svc, _, _ := newTestService()
	owner := doctorPrincipal()

	p, err := svc.Create(context.Background(), owner, CreateInput{Name: "Sara", Section: "nutrition"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	pid, did, err := svc.Resolve(context.Background(), owner, p.ExternalID)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if pid != p.ID || did != owner.ID {
		t.Error("Resolve returned wrong ids")
	}

	if _, _, err := svc.Resolve(context.Background(), owner, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
