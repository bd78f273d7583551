package billing

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Invoice, error)
}
