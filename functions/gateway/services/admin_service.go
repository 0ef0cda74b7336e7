package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

type AdminService struct{}

func NewAdminService() internal_types.AdminServiceInterface {
	return &AdminService{}
}

// CheckAccess is a plain attribute gate, not a policy engine: the caller
// needs an active admin row; volunteers are read/export only.
func (s *AdminService) CheckAccess(ctx context.Context, db *gorm.DB, authID string, write bool) error {
	var admin internal_types.Admin
	err := db.WithContext(ctx).First(&admin, "auth_id = ?", authID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccessDenied
		}
		return fmt.Errorf("failed to fetch admin record: %w", err)
	}

	if admin.Status != helpers.AdminStatusActive {
		return ErrAccessDenied
	}
	if write && admin.Role == string(helpers.Volunteer) {
		return ErrAccessDenied
	}
	return nil
}

func (s *AdminService) GetParticipants(ctx context.Context, db *gorm.DB) ([]internal_types.Participant, error) {
	participants := []internal_types.Participant{}
	err := db.WithContext(ctx).
		Model(&internal_types.User{}).
		Select("id, first_name, last_name, email, status, checked_in, created_at as registered_at").
		Order("created_at").
		Scan(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch participants: %w", err)
	}
	return participants, nil
}

// BulkUpdateStatus applies the status row by row. The batch is deliberately
// not transactional: a failure partway leaves earlier rows updated and is
// reported per id so the dashboard can retry just the failures.
func (s *AdminService) BulkUpdateStatus(ctx context.Context, db *gorm.DB, update internal_types.BulkStatusUpdate) (*internal_types.BulkStatusResult, error) {
	result := &internal_types.BulkStatusResult{Failed: map[string]string{}}

	for _, id := range update.UserIDs {
		res := db.WithContext(ctx).
			Model(&internal_types.User{}).
			Where("id = ?", id).
			Update("status", update.Status)
		if res.Error != nil {
			result.Failed[id] = res.Error.Error()
			continue
		}
		if res.RowsAffected == 0 {
			result.Failed[id] = "user not found"
			continue
		}
		result.Updated++
	}

	// Any status change can move users into or out of confirmed
	if confirmed, err := CountConfirmed(ctx, db); err == nil {
		PublishConfirmedCount(confirmed)
	}

	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	return result, nil
}

func (s *AdminService) SetCheckedIn(ctx context.Context, db *gorm.DB, userID string, checkedIn bool) error {
	res := db.WithContext(ctx).
		Model(&internal_types.User{}).
		Where("id = ?", userID).
		Update("checked_in", checkedIn)
	if res.Error != nil {
		return fmt.Errorf("failed to update check-in: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type MockAdminService struct {
	CheckAccessFunc      func(ctx context.Context, db *gorm.DB, authID string, write bool) error
	GetParticipantsFunc  func(ctx context.Context, db *gorm.DB) ([]internal_types.Participant, error)
	BulkUpdateStatusFunc func(ctx context.Context, db *gorm.DB, update internal_types.BulkStatusUpdate) (*internal_types.BulkStatusResult, error)
	SetCheckedInFunc     func(ctx context.Context, db *gorm.DB, userID string, checkedIn bool) error
}

func (m *MockAdminService) CheckAccess(ctx context.Context, db *gorm.DB, authID string, write bool) error {
	return m.CheckAccessFunc(ctx, db, authID, write)
}

func (m *MockAdminService) GetParticipants(ctx context.Context, db *gorm.DB) ([]internal_types.Participant, error) {
	return m.GetParticipantsFunc(ctx, db)
}

func (m *MockAdminService) BulkUpdateStatus(ctx context.Context, db *gorm.DB, update internal_types.BulkStatusUpdate) (*internal_types.BulkStatusResult, error) {
	return m.BulkUpdateStatusFunc(ctx, db, update)
}

func (m *MockAdminService) SetCheckedIn(ctx context.Context, db *gorm.DB, userID string, checkedIn bool) error {
	return m.SetCheckedInFunc(ctx, db, userID, checkedIn)
}
