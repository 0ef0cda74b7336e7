package types

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// User statuses over the event lifecycle. pending is the post-registration
// default; confirmed/waitlisted are set by the RSVP flow or by admins;
// declined and denied are terminal.
const (
	UserStatusPending    = "pending"
	UserStatusConfirmed  = "confirmed"
	UserStatusWaitlisted = "waitlisted"
	UserStatusDeclined   = "declined"
	UserStatusDenied     = "denied"
)

// User represents a registered participant.
type User struct {
	ID                  string               `json:"id" gorm:"type:uuid;primaryKey"`
	AuthID              string               `json:"auth_id" gorm:"uniqueIndex;not null"`
	FirstName           string               `json:"first_name"`
	LastName            string               `json:"last_name"`
	Email               string               `json:"email"`
	PendingEmail        *string              `json:"pending_email,omitempty"`
	GenderID            *int                 `json:"gender_id"`
	UniversityID        *int                 `json:"university_id"`
	MajorID             *int                 `json:"major_id"`
	MarketingID         *int                 `json:"marketing_id"`
	YearOfStudy         string               `json:"year_of_study"`
	Experience          string               `json:"experience"`
	PreviousAttendee    bool                 `json:"previous_attendee"`
	Accommodations      string               `json:"accommodations"`
	Status              string               `json:"status" gorm:"default:pending"`
	DirectInvite        bool                 `json:"direct_invite"`
	CheckedIn           bool                 `json:"checked_in"`
	Interests           []Interest           `json:"-" gorm:"many2many:user_interests"`
	DietaryRestrictions []DietaryRestriction `json:"-" gorm:"many2many:user_dietary_restrictions"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// RegistrationInsert is the full registration-form payload. The auth id and
// email come from the authenticated session, never from the client body.
type RegistrationInsert struct {
	FirstName           string `json:"first_name" validate:"required"`
	LastName            string `json:"last_name" validate:"required"`
	GenderID            int    `json:"gender_id" validate:"required,gt=0"`
	UniversityID        int    `json:"university_id" validate:"required,gt=0"`
	MajorID             int    `json:"major_id" validate:"required,gt=0"`
	MarketingID         int    `json:"marketing_id" validate:"required,gt=0"`
	YearOfStudy         string `json:"year_of_study" validate:"required,oneof=first second third fourth graduate"`
	Experience          string `json:"experience" validate:"omitempty,oneof=beginner intermediate advanced"`
	Interests           []int  `json:"interests" validate:"required,min=1,dive,gt=0"`
	DietaryRestrictions []int  `json:"dietary_restrictions" validate:"omitempty,dive,gt=0"`
	PreviousAttendee    bool   `json:"previous_attendee"`
	Accommodations      string `json:"accommodations"`
}

// UserProfileUpdate is a sparse partial update: nil fields are left
// untouched. For the two association slices, nil means "keep as is" and an
// explicit empty slice clears every row.
type UserProfileUpdate struct {
	FirstName           *string `json:"first_name,omitempty"`
	LastName            *string `json:"last_name,omitempty"`
	Email               *string `json:"email,omitempty" validate:"omitempty,email"`
	GenderID            *int    `json:"gender_id,omitempty" validate:"omitempty,gt=0"`
	UniversityID        *int    `json:"university_id,omitempty" validate:"omitempty,gt=0"`
	MajorID             *int    `json:"major_id,omitempty" validate:"omitempty,gt=0"`
	MarketingID         *int    `json:"marketing_id,omitempty" validate:"omitempty,gt=0"`
	YearOfStudy         *string `json:"year_of_study,omitempty" validate:"omitempty,oneof=first second third fourth graduate"`
	Experience          *string `json:"experience,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Accommodations      *string `json:"accommodations,omitempty"`
	Interests           *[]int  `json:"interests,omitempty" validate:"omitempty,dive,gt=0"`
	DietaryRestrictions *[]int  `json:"dietary_restrictions,omitempty" validate:"omitempty,dive,gt=0"`
}

// UserProfile is the read shape returned to the profile page.
type UserProfile struct {
	ID                  string  `json:"id"`
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	Email               string  `json:"email"`
	PendingEmail        *string `json:"pending_email,omitempty"`
	GenderID            *int    `json:"gender_id"`
	UniversityID        *int    `json:"university_id"`
	MajorID             *int    `json:"major_id"`
	MarketingID         *int    `json:"marketing_id"`
	YearOfStudy         string  `json:"year_of_study"`
	Experience          string  `json:"experience"`
	PreviousAttendee    bool    `json:"previous_attendee"`
	Accommodations      string  `json:"accommodations"`
	Status              string  `json:"status"`
	CheckedIn           bool    `json:"checked_in"`
	Interests           []int   `json:"interests"`
	DietaryRestrictions []int   `json:"dietary_restrictions"`
}

// UserServiceInterface defines registration and profile operations.
type UserServiceInterface interface {
	RegisterUser(ctx context.Context, db *gorm.DB, authID, email string, reg RegistrationInsert) (*UserProfile, error)
	GetUserProfile(ctx context.Context, db *gorm.DB, authID string) (*UserProfile, error)
	UpdateUserProfile(ctx context.Context, db *gorm.DB, authID string, update UserProfileUpdate) (*UserProfile, error)
}
