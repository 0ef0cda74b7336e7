package types

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Workshop is an admin-managed session participants can register for.
// MaxCapacity of 0 means unlimited.
type Workshop struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Location    string    `json:"location"`
	MaxCapacity int64     `json:"max_capacity"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WorkshopInsert struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required,min=10"`
	Date        string `json:"date" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	Location    string `json:"location" validate:"required"`
	MaxCapacity int64  `json:"max_capacity" validate:"gte=0"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// WorkshopUpdate is sparse: only non-nil fields are written.
type WorkshopUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=10"`
	Date        *string `json:"date,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	EndTime     *string `json:"end_time,omitempty"`
	Location    *string `json:"location,omitempty"`
	MaxCapacity *int64  `json:"max_capacity,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// WorkshopWithStatus decorates a workshop with the caller's registration
// state and the live registration count.
type WorkshopWithStatus struct {
	Workshop
	CurrentRegistrations int64 `json:"current_registrations"`
	IsRegistered         bool  `json:"is_registered"`
	IsFull               bool  `json:"is_full"`
}

// WorkshopServiceInterface defines workshop listing, the register/unregister
// flow, and the admin-only CRUD.
type WorkshopServiceInterface interface {
	GetWorkshopsForUser(ctx context.Context, db *gorm.DB, authID string) ([]WorkshopWithStatus, error)
	GetAllWorkshops(ctx context.Context, db *gorm.DB) ([]WorkshopWithStatus, error)
	RegisterForWorkshop(ctx context.Context, db *gorm.DB, authID, workshopID string) (*WorkshopRegistration, error)
	UnregisterFromWorkshop(ctx context.Context, db *gorm.DB, authID, workshopID string) error
	InsertWorkshop(ctx context.Context, db *gorm.DB, workshop WorkshopInsert) (*Workshop, error)
	UpdateWorkshop(ctx context.Context, db *gorm.DB, id string, workshop WorkshopUpdate) (*Workshop, error)
	DeleteWorkshop(ctx context.Context, db *gorm.DB, id string) error
	GetWorkshopRegistrations(ctx context.Context, db *gorm.DB, workshopID string) ([]WorkshopRegistrationDetail, error)
}
