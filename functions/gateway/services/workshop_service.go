package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

const pgUniqueViolation = "23505"

type WorkshopService struct{}

func NewWorkshopService() internal_types.WorkshopServiceInterface {
	return &WorkshopService{}
}

func (s *WorkshopService) GetWorkshopsForUser(ctx context.Context, db *gorm.DB, authID string) ([]internal_types.WorkshopWithStatus, error) {
	var workshops []internal_types.Workshop
	if err := db.WithContext(ctx).Where("is_active = ?", true).Order("date, start_time").Find(&workshops).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch workshops: %w", err)
	}

	countByID, err := registrationCounts(ctx, db)
	if err != nil {
		return nil, err
	}

	// Callers who have not completed registration yet can still browse;
	// they just have no registrations to flag.
	registered := map[string]bool{}
	userID, err := resolveUserID(ctx, db, authID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if err == nil {
		var registeredIDs []string
		err = db.WithContext(ctx).
			Model(&internal_types.WorkshopRegistration{}).
			Where("user_id = ?", userID).
			Pluck("workshop_id", &registeredIDs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user registrations: %w", err)
		}
		for _, id := range registeredIDs {
			registered[id] = true
		}
	}

	result := make([]internal_types.WorkshopWithStatus, 0, len(workshops))
	for _, w := range workshops {
		count := countByID[w.ID]
		result = append(result, internal_types.WorkshopWithStatus{
			Workshop:             w,
			CurrentRegistrations: count,
			IsRegistered:         registered[w.ID],
			IsFull:               w.MaxCapacity > 0 && count >= w.MaxCapacity,
		})
	}
	return result, nil
}

// GetAllWorkshops is the dashboard listing: every workshop, inactive ones
// included, with its registration count.
func (s *WorkshopService) GetAllWorkshops(ctx context.Context, db *gorm.DB) ([]internal_types.WorkshopWithStatus, error) {
	var workshops []internal_types.Workshop
	if err := db.WithContext(ctx).Order("date, start_time").Find(&workshops).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch workshops: %w", err)
	}

	countByID, err := registrationCounts(ctx, db)
	if err != nil {
		return nil, err
	}

	result := make([]internal_types.WorkshopWithStatus, 0, len(workshops))
	for _, w := range workshops {
		count := countByID[w.ID]
		result = append(result, internal_types.WorkshopWithStatus{
			Workshop:             w,
			CurrentRegistrations: count,
			IsFull:               w.MaxCapacity > 0 && count >= w.MaxCapacity,
		})
	}
	return result, nil
}

// registrationCounts is one grouped query for every count instead of a
// round-trip per workshop.
func registrationCounts(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	type regCount struct {
		WorkshopID string
		Count      int64
	}
	var counts []regCount
	err := db.WithContext(ctx).
		Model(&internal_types.WorkshopRegistration{}).
		Select("workshop_id", "count(*) as count").
		Group("workshop_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	countByID := make(map[string]int64, len(counts))
	for _, c := range counts {
		countByID[c.WorkshopID] = c.Count
	}
	return countByID, nil
}

// resolveUserID maps the identity provider's subject onto our user row.
// Registration rows key the internal uuid, never the auth subject.
func resolveUserID(ctx context.Context, db *gorm.DB, authID string) (string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&internal_types.User{}).
		Where("auth_id = ?", authID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return "", fmt.Errorf("failed to resolve user: %w", err)
	}
	if len(ids) == 0 {
		return "", ErrUserNotFound
	}
	return ids[0], nil
}

// RegisterForWorkshop enforces the capacity invariant at the database: the
// insert itself carries the capacity guard, so two concurrent callers cannot
// both slip past a read-side check and overshoot. The duplicate pre-check
// exists only to distinguish the friendly error; the composite unique index
// is what actually prevents the second row.
func (s *WorkshopService) RegisterForWorkshop(ctx context.Context, db *gorm.DB, authID, workshopID string) (*internal_types.WorkshopRegistration, error) {
	userID, err := resolveUserID(ctx, db, authID)
	if err != nil {
		return nil, err
	}

	var workshop internal_types.Workshop
	if err := db.WithContext(ctx).First(&workshop, "id = ? AND is_active = ?", workshopID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch workshop: %w", err)
	}

	var existing int64
	err = db.WithContext(ctx).
		Model(&internal_types.WorkshopRegistration{}).
		Where("user_id = ? AND workshop_id = ?", userID, workshopID).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyRegistered
	}

	reg := internal_types.WorkshopRegistration{
		ID:           uuid.NewString(),
		UserID:       userID,
		WorkshopID:   workshopID,
		RegisteredAt: time.Now().UTC(),
	}

	res := db.WithContext(ctx).Exec(`
		INSERT INTO workshop_registrations (id, user_id, workshop_id, registered_at)
		SELECT ?, ?, w.id, ?
		FROM workshops w
		WHERE w.id = ? AND w.is_active = ?
		  AND (w.max_capacity = 0 OR (SELECT count(*) FROM workshop_registrations r WHERE r.workshop_id = w.id) < w.max_capacity)`,
		reg.ID, userID, reg.RegisteredAt, workshopID, true)
	if res.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(res.Error, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to insert registration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrWorkshopFull
	}

	s.publishCount(ctx, db, workshopID)
	return &reg, nil
}

func (s *WorkshopService) UnregisterFromWorkshop(ctx context.Context, db *gorm.DB, authID, workshopID string) error {
	userID, err := resolveUserID(ctx, db, authID)
	if err != nil {
		return err
	}

	res := db.WithContext(ctx).
		Where("user_id = ? AND workshop_id = ?", userID, workshopID).
		Delete(&internal_types.WorkshopRegistration{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete registration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotRegistered
	}

	s.publishCount(ctx, db, workshopID)
	return nil
}

func (s *WorkshopService) InsertWorkshop(ctx context.Context, db *gorm.DB, insert internal_types.WorkshopInsert) (*internal_types.Workshop, error) {
	date, err := time.Parse("2006-01-02", insert.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", insert.Date, err)
	}

	workshop := internal_types.Workshop{
		ID:          uuid.NewString(),
		Title:       insert.Title,
		Description: insert.Description,
		Date:        date,
		StartTime:   insert.StartTime,
		EndTime:     insert.EndTime,
		Location:    insert.Location,
		MaxCapacity: insert.MaxCapacity,
		IsActive:    true,
	}
	if insert.IsActive != nil {
		workshop.IsActive = *insert.IsActive
	}

	if err := db.WithContext(ctx).Create(&workshop).Error; err != nil {
		return nil, fmt.Errorf("failed to create workshop: %w", err)
	}
	return &workshop, nil
}

func (s *WorkshopService) UpdateWorkshop(ctx context.Context, db *gorm.DB, id string, update internal_types.WorkshopUpdate) (*internal_types.Workshop, error) {
	var workshop internal_types.Workshop
	if err := db.WithContext(ctx).First(&workshop, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch workshop: %w", err)
	}

	updates := map[string]interface{}{}
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Date != nil {
		date, err := time.Parse("2006-01-02", *update.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", *update.Date, err)
		}
		updates["date"] = date
	}
	if update.StartTime != nil {
		updates["start_time"] = *update.StartTime
	}
	if update.EndTime != nil {
		updates["end_time"] = *update.EndTime
	}
	if update.Location != nil {
		updates["location"] = *update.Location
	}
	if update.MaxCapacity != nil {
		updates["max_capacity"] = *update.MaxCapacity
	}
	if update.IsActive != nil {
		updates["is_active"] = *update.IsActive
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&workshop).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update workshop: %w", err)
		}
	}
	return &workshop, nil
}

// DeleteWorkshop removes the workshop; registrations go with it via the
// ON DELETE CASCADE constraint.
func (s *WorkshopService) DeleteWorkshop(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&internal_types.Workshop{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete workshop: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *WorkshopService) GetWorkshopRegistrations(ctx context.Context, db *gorm.DB, workshopID string) ([]internal_types.WorkshopRegistrationDetail, error) {
	details := []internal_types.WorkshopRegistrationDetail{}
	err := db.WithContext(ctx).
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
		Where("workshop_registrations.workshop_id = ?", workshopID).
		Order("workshop_registrations.registered_at").
		Scan(&details).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workshop registrations: %w", err)
	}
	return details, nil
}

func (s *WorkshopService) publishCount(ctx context.Context, db *gorm.DB, workshopID string) {
	var count int64
	if err := db.WithContext(ctx).Model(&internal_types.WorkshopRegistration{}).Where("workshop_id = ?", workshopID).Count(&count).Error; err != nil {
		return
	}
	PublishWorkshopCount(workshopID, count)
}

type MockWorkshopService struct {
	GetWorkshopsForUserFunc      func(ctx context.Context, db *gorm.DB, authID string) ([]internal_types.WorkshopWithStatus, error)
	GetAllWorkshopsFunc          func(ctx context.Context, db *gorm.DB) ([]internal_types.WorkshopWithStatus, error)
	RegisterForWorkshopFunc      func(ctx context.Context, db *gorm.DB, authID, workshopID string) (*internal_types.WorkshopRegistration, error)
	UnregisterFromWorkshopFunc   func(ctx context.Context, db *gorm.DB, authID, workshopID string) error
	InsertWorkshopFunc           func(ctx context.Context, db *gorm.DB, workshop internal_types.WorkshopInsert) (*internal_types.Workshop, error)
	UpdateWorkshopFunc           func(ctx context.Context, db *gorm.DB, id string, workshop internal_types.WorkshopUpdate) (*internal_types.Workshop, error)
	DeleteWorkshopFunc           func(ctx context.Context, db *gorm.DB, id string) error
	GetWorkshopRegistrationsFunc func(ctx context.Context, db *gorm.DB, workshopID string) ([]internal_types.WorkshopRegistrationDetail, error)
}

func (m *MockWorkshopService) GetWorkshopsForUser(ctx context.Context, db *gorm.DB, authID string) ([]internal_types.WorkshopWithStatus, error) {
	return m.GetWorkshopsForUserFunc(ctx, db, authID)
}

func (m *MockWorkshopService) GetAllWorkshops(ctx context.Context, db *gorm.DB) ([]internal_types.WorkshopWithStatus, error) {
	return m.GetAllWorkshopsFunc(ctx, db)
}

func (m *MockWorkshopService) RegisterForWorkshop(ctx context.Context, db *gorm.DB, authID, workshopID string) (*internal_types.WorkshopRegistration, error) {
	return m.RegisterForWorkshopFunc(ctx, db, authID, workshopID)
}

func (m *MockWorkshopService) UnregisterFromWorkshop(ctx context.Context, db *gorm.DB, authID, workshopID string) error {
	return m.UnregisterFromWorkshopFunc(ctx, db, authID, workshopID)
}

func (m *MockWorkshopService) InsertWorkshop(ctx context.Context, db *gorm.DB, workshop internal_types.WorkshopInsert) (*internal_types.Workshop, error) {
	return m.InsertWorkshopFunc(ctx, db, workshop)
}

func (m *MockWorkshopService) UpdateWorkshop(ctx context.Context, db *gorm.DB, id string, workshop internal_types.WorkshopUpdate) (*internal_types.Workshop, error) {
	return m.UpdateWorkshopFunc(ctx, db, id, workshop)
}

func (m *MockWorkshopService) DeleteWorkshop(ctx context.Context, db *gorm.DB, id string) error {
	return m.DeleteWorkshopFunc(ctx, db, id)
}

func (m *MockWorkshopService) GetWorkshopRegistrations(ctx context.Context, db *gorm.DB, workshopID string) ([]internal_types.WorkshopRegistrationDetail, error) {
	return m.GetWorkshopRegistrationsFunc(ctx, db, workshopID)
}
