package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

// csvHeader is the fixed export column order; downstream spreadsheets depend
// on it.
var csvHeader = []string{
	"Workshop Title", "Date", "Time", "Location", "Participant Name",
	"First Name", "Last Name", "Year of Study", "Gender", "Major",
	"Registration Date",
}

type ExportService struct{}

func NewExportService() internal_types.ExportServiceInterface {
	return &ExportService{}
}

// ExportWorkshopRegistrationsCSV emits one quoted row per registration. An
// empty result still produces the header row.
func (s *ExportService) ExportWorkshopRegistrationsCSV(ctx context.Context, db *gorm.DB, workshopID string) ([]byte, error) {
	query := db.WithContext(ctx).
		Table("workshop_registrations").
		Select(`workshops.title as workshop_title, workshops.date as workshop_date,
			workshops.start_time, workshops.end_time, workshops.location,
			users.first_name, users.last_name, users.year_of_study,
			coalesce(genders.label, '') as gender, coalesce(majors.label, '') as major,
			workshop_registrations.registered_at`).
		Joins("JOIN workshops ON workshops.id = workshop_registrations.workshop_id").
		Joins("JOIN users ON users.id = workshop_registrations.user_id").
		Joins("LEFT JOIN genders ON genders.id = users.gender_id").
		Joins("LEFT JOIN majors ON majors.id = users.major_id").
		Order("workshops.title, workshop_registrations.registered_at")
	if workshopID != "" {
		query = query.Where("workshop_registrations.workshop_id = ?", workshopID)
	}

	details := []internal_types.WorkshopRegistrationDetail{}
	if err := query.Scan(&details).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch registrations for export: %w", err)
	}

	var sb strings.Builder
	writeCsvRow(&sb, csvHeader)
	for _, d := range details {
		writeCsvRow(&sb, []string{
			d.WorkshopTitle,
			helpers.FormatDate(d.WorkshopDate),
			helpers.FormatTimeRange(d.StartTime, d.EndTime),
			d.Location,
			strings.TrimSpace(d.FirstName + " " + d.LastName),
			d.FirstName,
			d.LastName,
			d.YearOfStudy,
			d.Gender,
			d.Major,
			d.RegisteredAt.Format("2006-01-02 15:04"),
		})
	}
	return []byte(sb.String()), nil
}

// Every value is quoted, not just the ones that need it; embedded quotes are
// doubled per RFC 4180.
func writeCsvRow(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}

type MockExportService struct {
	ExportWorkshopRegistrationsCSVFunc func(ctx context.Context, db *gorm.DB, workshopID string) ([]byte, error)
}

func (m *MockExportService) ExportWorkshopRegistrationsCSV(ctx context.Context, db *gorm.DB, workshopID string) ([]byte, error) {
	return m.ExportWorkshopRegistrationsCSVFunc(ctx, db, workshopID)
}
