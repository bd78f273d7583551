package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinio/clinio/internal/platform/session"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords so a caller cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError marks user-correctable input problems. Handlers show its
// message; any other error stays internal and surfaces as a 500.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the add-doctor form fields. Password is plaintext here
// and nowhere else; it is hashed before the record is built.
type CreateInput struct {
	Username  string
	Password  string
	FullName  string
	Specialty string
	Role      string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Doctor, error) {
	if in.Username == "" || in.Password == "" {
		return nil, ValidationError("username and password are required")
	}
	if len(in.Password) < 8 {
		return nil, ValidationError("password must be at least 8 characters")
	}
	role := in.Role
	if role == "" {
		role = session.RoleDoctor
	}
	if role != session.RoleDoctor && role != session.RoleAdmin {
		return nil, ValidationError(fmt.Sprintf("role must be %q or %q", session.RoleDoctor, session.RoleAdmin))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	d := &Doctor{
		Username:     in.Username,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Role:         role,
	}
	if in.Specialty != "" {
		d.Specialty = &in.Specialty
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Authenticate verifies the credentials and returns the matching doctor.
// Unknown username and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Doctor, error) {
	d, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return d, nil
}

// GetByID looks up a doctor account by primary key. Other domains use it to
// confirm an account exists before attaching records to it.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// EnsureSeedAdmin creates the bootstrap admin account on first start. Running
// it again against the same store is a no-op, so repeated boots never create
// a second seed account.
func (s *Service) EnsureSeedAdmin(ctx context.Context, logger zerolog.Logger, username, password string) error {
	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("look up seed account: %w", err)
	}

	if _, err := s.Create(ctx, CreateInput{
		Username: username,
		Password: password,
		FullName: "Clinic Administrator",
		Role:     session.RoleAdmin,
	}); err != nil {
		// A concurrent boot may have won the race; that still satisfies
		// the bootstrap contract.
		if errors.Is(err, ErrUsernameTaken) {
			return nil
		}
		return fmt.Errorf("create seed account: %w", err)
	}

	logger.Warn().
		Str("username", username).
		Msg("seed admin account created with default credentials, rotate before exposing the service")
	return nil
}
