package types

import "time"

// WorkshopRegistration is the (user, workshop) join entity. The composite
// unique index backs the one-registration-per-user rule at the database, not
// just in the pre-check.
type WorkshopRegistration struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       string    `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_user_workshop;not null"`
	WorkshopID   string    `json:"workshop_id" gorm:"type:uuid;uniqueIndex:idx_user_workshop;not null"`
	Workshop     *Workshop `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	RegisteredAt time.Time `json:"registered_at"`
}

// WorkshopRegistrationDetail is the joined row shape used by the admin
// registrations table and the CSV export.
type WorkshopRegistrationDetail struct {
	WorkshopTitle string    `json:"workshop_title"`
	WorkshopDate  time.Time `json:"workshop_date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Location      string    `json:"location"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	YearOfStudy   string    `json:"year_of_study"`
	Gender        string    `json:"gender"`
	Major         string    `json:"major"`
	RegisteredAt  time.Time `json:"registered_at"`
}
