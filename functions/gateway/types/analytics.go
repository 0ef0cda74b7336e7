package types

import (
	"context"

	"gorm.io/gorm"
)

// DimensionCount is one slice of a lookup-dimension breakdown.
type DimensionCount struct {
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// StatsResponse aggregates participant counts for the admin dashboard.
// Read-only; no invariant enforcement happens here.
type StatsResponse struct {
	TotalParticipants int64            `json:"total_participants"`
	StatusCounts      map[string]int64 `json:"status_counts"`
	CheckedIn         int64            `json:"checked_in"`
	Genders           []DimensionCount `json:"genders"`
	Universities      []DimensionCount `json:"universities"`
	Majors            []DimensionCount `json:"majors"`
	Marketing         []DimensionCount `json:"marketing"`
	YearsOfStudy      []DimensionCount `json:"years_of_study"`
}

// TrendsFilter carries the query-string filters for the registrations trend.
// Zero values mean "no filter"; Days defaults when 0.
type TrendsFilter struct {
	Marketing  string
	Experience string
	Major      string
	Gender     string
	University string
	Days       int
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AnalyticsServiceInterface interface {
	GetStats(ctx context.Context, db *gorm.DB) (*StatsResponse, error)
	GetTrends(ctx context.Context, db *gorm.DB, filter TrendsFilter) ([]TrendPoint, error)
}

// ExportServiceInterface emits the workshop registrations CSV. An empty
// workshopID exports every workshop.
type ExportServiceInterface interface {
	ExportWorkshopRegistrationsCSV(ctx context.Context, db *gorm.DB, workshopID string) ([]byte, error)
}
