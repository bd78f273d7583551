package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctor table. The password hash never leaves the server:
// it is excluded from JSON and only compared inside the service.
type Doctor struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Specialty    *string   `db:"specialty" json:"specialty,omitempty"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
