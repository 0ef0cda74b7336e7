package types

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Admin backs the authorization boundary: mutations need an active admin
// whose role is not volunteer; reads and exports accept any active role.
type Admin struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	AuthID    string    `json:"auth_id" gorm:"uniqueIndex;not null"`
	Role      string    `json:"role"`
	Status    string    `json:"status" gorm:"default:active"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant is the admin dashboard row shape.
type Participant struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Status       string    `json:"status"`
	CheckedIn    bool      `json:"checked_in"`
	RegisteredAt time.Time `json:"registered_at"`
}

type BulkStatusUpdate struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,uuid4"`
	Status  string   `json:"status" validate:"required,oneof=pending confirmed waitlisted declined denied"`
}

// BulkStatusResult reports per-row outcomes; the batch is not transactional
// and a mid-batch failure leaves earlier rows updated.
type BulkStatusResult struct {
	Updated int64             `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

type AdminServiceInterface interface {
	CheckAccess(ctx context.Context, db *gorm.DB, authID string, write bool) error
	GetParticipants(ctx context.Context, db *gorm.DB) ([]Participant, error)
	BulkUpdateStatus(ctx context.Context, db *gorm.DB, update BulkStatusUpdate) (*BulkStatusResult, error)
	SetCheckedIn(ctx context.Context, db *gorm.DB, userID string, checkedIn bool) error
}
