package types

import (
	"context"

	"gorm.io/gorm"
)

// Lookup tables are static id+label reference rows, read-only from the
// application's perspective. Each gets its own table so foreign keys stay
// meaningful.

type Gender struct {
	ID    int    `json:"id" gorm:"primaryKey"`
	Label string `json:"label"`
}

type University struct {
	ID    int    `json:"id" gorm:"primaryKey"`
	Label string `json:"label"`
}

type Major struct {
	ID    int    `json:"id" gorm:"primaryKey"`
	Label string `json:"label"`
}

type Interest struct {
	ID    int    `json:"id" gorm:"primaryKey"`
	Label string `json:"label"`
}

type DietaryRestriction struct {
	ID    int    `json:"id" gorm:"primaryKey"`
	Label string `json:"label"`
}

type MarketingType struct {
	ID    int    `json:"id" gorm:"primaryKey"`
	Label string `json:"label"`
}

// Option is the id+label pair shape every lookup renders to.
type Option struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// FormOptions is the merged response of all six lookup reads.
type FormOptions struct {
	Genders             []Option `json:"genders"`
	Universities        []Option `json:"universities"`
	Majors              []Option `json:"majors"`
	Interests           []Option `json:"interests"`
	DietaryRestrictions []Option `json:"dietary_restrictions"`
	MarketingTypes      []Option `json:"marketing_types"`
}

type LookupServiceInterface interface {
	GetFormOptions(ctx context.Context, db *gorm.DB) (*FormOptions, error)
}
