package services

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

type AnalyticsService struct{}

func NewAnalyticsService() internal_types.AnalyticsServiceInterface {
	return &AnalyticsService{}
}

// GetStats aggregates dashboard counts and percentages. Read-only: nothing
// here enforces an invariant.
func (s *AnalyticsService) GetStats(ctx context.Context, db *gorm.DB) (*internal_types.StatsResponse, error) {
	stats := &internal_types.StatsResponse{StatusCounts: map[string]int64{}}

	if err := db.WithContext(ctx).Model(&internal_types.User{}).Count(&stats.TotalParticipants).Error; err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var statuses []statusCount
	err := db.WithContext(ctx).
		Model(&internal_types.User{}).
		Select("status", "count(*) as count").
		Group("status").
		Scan(&statuses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	for _, sc := range statuses {
		stats.StatusCounts[sc.Status] = sc.Count
	}

	err = db.WithContext(ctx).
		Model(&internal_types.User{}).
		Where("checked_in = ?", true).
		Count(&stats.CheckedIn).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count check-ins: %w", err)
	}

	total := stats.TotalParticipants
	if stats.Genders, err = s.breakdown(ctx, db, "genders", "gender_id", total); err != nil {
		return nil, err
	}
	if stats.Universities, err = s.breakdown(ctx, db, "universities", "university_id", total); err != nil {
		return nil, err
	}
	if stats.Majors, err = s.breakdown(ctx, db, "majors", "major_id", total); err != nil {
		return nil, err
	}
	if stats.Marketing, err = s.breakdown(ctx, db, "marketing_types", "marketing_id", total); err != nil {
		return nil, err
	}

	var years []internal_types.DimensionCount
	err = db.WithContext(ctx).
		Model(&internal_types.User{}).
		Select("year_of_study as label", "count(*) as count").
		Where("year_of_study <> ''").
		Group("year_of_study").
		Order("count DESC").
		Scan(&years).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate years of study: %w", err)
	}
	stats.YearsOfStudy = withPercentages(years, total)

	return stats, nil
}

func (s *AnalyticsService) breakdown(ctx context.Context, db *gorm.DB, table, fk string, total int64) ([]internal_types.DimensionCount, error) {
	rows := []internal_types.DimensionCount{}
	err := db.WithContext(ctx).
		Table("users").
		Select(table+".label as label", "count(*) as count").
		Joins(fmt.Sprintf("JOIN %s ON %s.id = users.%s", table, table, fk)).
		Group(table + ".label").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", table, err)
	}
	return withPercentages(rows, total), nil
}

func withPercentages(rows []internal_types.DimensionCount, total int64) []internal_types.DimensionCount {
	if total == 0 {
		return rows
	}
	for i := range rows {
		pct := float64(rows[i].Count) / float64(total) * 100
		rows[i].Percentage = math.Round(pct*10) / 10
	}
	return rows
}

// GetTrends returns daily registration counts over the filter window.
// Filter values are lookup labels from the dashboard's dropdowns.
func (s *AnalyticsService) GetTrends(ctx context.Context, db *gorm.DB, filter internal_types.TrendsFilter) ([]internal_types.TrendPoint, error) {
	days := filter.Days
	if days <= 0 {
		days = helpers.DEFAULT_TRENDS_DAYS
	}

	query := db.WithContext(ctx).
		Table("users").
		Select("to_char(users.created_at, 'YYYY-MM-DD') as date", "count(*) as count").
		Where(fmt.Sprintf("users.created_at >= now() - interval '%d days'", days))

	if filter.Gender != "" {
		query = query.Joins("JOIN genders ON genders.id = users.gender_id").
			Where("genders.label = ?", filter.Gender)
	}
	if filter.University != "" {
		query = query.Joins("JOIN universities ON universities.id = users.university_id").
			Where("universities.label = ?", filter.University)
	}
	if filter.Major != "" {
		query = query.Joins("JOIN majors ON majors.id = users.major_id").
			Where("majors.label = ?", filter.Major)
	}
	if filter.Marketing != "" {
		query = query.Joins("JOIN marketing_types ON marketing_types.id = users.marketing_id").
			Where("marketing_types.label = ?", filter.Marketing)
	}
	if filter.Experience != "" {
		query = query.Where("users.experience = ?", filter.Experience)
	}

	points := []internal_types.TrendPoint{}
	err := query.Group("date").Order("date").Scan(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registration trends: %w", err)
	}
	return points, nil
}

type MockAnalyticsService struct {
	GetStatsFunc  func(ctx context.Context, db *gorm.DB) (*internal_types.StatsResponse, error)
	GetTrendsFunc func(ctx context.Context, db *gorm.DB, filter internal_types.TrendsFilter) ([]internal_types.TrendPoint, error)
}

func (m *MockAnalyticsService) GetStats(ctx context.Context, db *gorm.DB) (*internal_types.StatsResponse, error) {
	return m.GetStatsFunc(ctx, db)
}

func (m *MockAnalyticsService) GetTrends(ctx context.Context, db *gorm.DB, filter internal_types.TrendsFilter) ([]internal_types.TrendPoint, error) {
	return m.GetTrendsFunc(ctx, db, filter)
}
