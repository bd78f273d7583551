package doctor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinio/clinio/internal/platform/session"
)

// memRepo is an in-memory Repository used by the package tests.
type memRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*Doctor
	byName  map[string]*Doctor
	ordered []*Doctor
}

func newMemRepo() *memRepo {
	return &memRepo{
		byID:   make(map[uuid.UUID]*Doctor),
		byName: make(map[string]*Doctor),
	}
}

func (m *memRepo) Create(_ context.Context, d *Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[d.Username]; exists {
		return ErrUsernameTaken
	}
	d.ID = uuid.New()
	cp := *d
	m.byID[d.ID] = &cp
	m.byName[d.Username] = &cp
	m.ordered = append(m.ordered, &cp)
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memRepo) GetByUsername(_ context.Context, username string) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, limit, offset int) ([]*Doctor, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := len(m.ordered)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return m.ordered[offset:end], total, nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo), repo
}

func TestCreate_DefaultsToDoctorRole(t *testing.T) {
	svc, _ := newTestService()

	d, err := svc.Create(context.Background(), CreateInput{
		Username: "dr.sara",
		Password: "s3cret-pass",
		FullName: "Dr. Sara",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if d.Role != session.RoleDoctor {
		t.Errorf("expected default role doctor, got %s", d.Role)
	}
	if d.PasswordHash == "s3cret-pass" || d.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
}

func TestCreate_RejectsMissingFields(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Create(context.Background(), CreateInput{Password: "s3cret-pass"}); err == nil {
		t.Error("expected error for missing username")
	}
	if _, err := svc.Create(context.Background(), CreateInput{Username: "x"}); err == nil {
		t.Error("expected error for missing password")
	}
	if _, err := svc.Create(context.Background(), CreateInput{Username: "x", Password: "short"}); err == nil {
		t.Error("expected error for short password")
	}
	if _, err := svc.Create(context.Background(), CreateInput{Username: "x", Password: "s3cret-pass", Role: "superuser"}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestCreate_DuplicateUsernameKeepsOriginal(t *testing.T) {
	svc, repo := newTestService()

	first, err := svc.Create(context.Background(), CreateInput{
		Username: "dr.omar", Password: "s3cret-pass", FullName: "Dr. Omar",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	_, err = svc.Create(context.Background(), CreateInput{
		Username: "dr.omar", Password: "other-secret", FullName: "Impostor",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	kept, err := repo.GetByUsername(context.Background(), "dr.omar")
	if err != nil {
		t.Fatalf("GetByUsername() error: %v", err)
	}
	if kept.ID != first.ID || kept.FullName != "Dr. Omar" {
		t.Error("original record must be unchanged after conflict")
	}
}

func TestGetByID(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), CreateInput{
		Username: "dr.sara", Password: "s3cret-pass", FullName: "Dr. Sara",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	d, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if d.Username != "dr.sara" {
		t.Errorf("expected dr.sara, got %s", d.Username)
	}

	if _, err := svc.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), CreateInput{
		Username: "dr.lina", Password: "s3cret-pass", FullName: "Dr. Lina",
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	d, err := svc.Authenticate(context.Background(), "dr.lina", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if d.ID != created.ID {
		t.Error("authenticated the wrong doctor")
	}
}

func TestAuthenticate_NoEnumerationSignal(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Create(context.Background(), CreateInput{
		Username: "dr.lina", Password: "s3cret-pass",
	}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	_, wrongPass := svc.Authenticate(context.Background(), "dr.lina", "wrong-pass")
	_, unknownUser := svc.Authenticate(context.Background(), "nobody", "wrong-pass")

	if !errors.Is(wrongPass, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", unknownUser)
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Error("failure messages must be identical for both cases")
	}
}

func TestEnsureSeedAdmin_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	logger := zerolog.Nop()

	if err := svc.EnsureSeedAdmin(context.Background(), logger, "master", "Master@123"); err != nil {
		t.Fatalf("first EnsureSeedAdmin() error: %v", err)
	}
	if err := svc.EnsureSeedAdmin(context.Background(), logger, "master", "Master@123"); err != nil {
		t.Fatalf("second EnsureSeedAdmin() error: %v", err)
	}

	_, total, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected exactly one seed account, got %d", total)
	}

	seed, err := repo.GetByUsername(context.Background(), "master")
	if err != nil {
		t.Fatalf("GetByUsername() error: %v", err)
	}
	if seed.Role != session.RoleAdmin {
		t.Errorf("seed account must be admin, got %s", seed.Role)
	}
}
