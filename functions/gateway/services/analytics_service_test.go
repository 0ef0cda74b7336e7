package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

func dimensionRows(pairs ...interface{}) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"label", "count"})
	for i := 0; i < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1])
	}
	return rows
}

func TestGetStats(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &AnalyticsService{}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(200))
	mock.ExpectQuery(`SELECT status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(internal_types.UserStatusConfirmed, int64(150)).
			AddRow(internal_types.UserStatusWaitlisted, int64(50)))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))
	mock.ExpectQuery(`JOIN genders`).
		WillReturnRows(dimensionRows("Woman", int64(90), "Man", int64(110)))
	mock.ExpectQuery(`JOIN universities`).
		WillReturnRows(dimensionRows("Mount Royal University", int64(150)))
	mock.ExpectQuery(`JOIN majors`).
		WillReturnRows(dimensionRows("Computer Science", int64(75)))
	mock.ExpectQuery(`JOIN marketing_types`).
		WillReturnRows(dimensionRows("Instagram", int64(60)))
	mock.ExpectQuery(`year_of_study`).
		WillReturnRows(dimensionRows("second", int64(67)))

	stats, err := svc.GetStats(context.Background(), db)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if stats.TotalParticipants != 200 {
		t.Errorf("expected 200 participants, got %d", stats.TotalParticipants)
	}
	if stats.StatusCounts[internal_types.UserStatusConfirmed] != 150 {
		t.Errorf("unexpected status counts: %+v", stats.StatusCounts)
	}
	if stats.CheckedIn != 120 {
		t.Errorf("expected 120 checked in, got %d", stats.CheckedIn)
	}
	if stats.Genders[0].Percentage != 45.0 {
		t.Errorf("expected 45.0%%, got %v", stats.Genders[0].Percentage)
	}
	// 67/200 rounds to one decimal place
	if stats.YearsOfStudy[0].Percentage != 33.5 {
		t.Errorf("expected 33.5%%, got %v", stats.YearsOfStudy[0].Percentage)
	}
	expectationsMet(t, mock)
}

func TestGetTrendsAppliesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &AnalyticsService{}

	mock.ExpectQuery(`JOIN genders`).
		WithArgs("Woman", "advanced").
		WillReturnRows(sqlmock.NewRows([]string{"date", "count"}).
			AddRow("2025-09-18", int64(4)).
			AddRow("2025-09-19", int64(9)))

	points, err := svc.GetTrends(context.Background(), db, internal_types.TrendsFilter{
		Gender:     "Woman",
		Experience: "advanced",
		Days:       14,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(points) != 2 || points[1].Count != 9 {
		t.Errorf("unexpected trend points: %+v", points)
	}
	expectationsMet(t, mock)
}

func TestGetTrendsDefaultsWindow(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &AnalyticsService{}

	mock.ExpectQuery(`interval '30 days'`).
		WillReturnRows(sqlmock.NewRows([]string{"date", "count"}))

	if _, err := svc.GetTrends(context.Background(), db, internal_types.TrendsFilter{}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	expectationsMet(t, mock)
}
