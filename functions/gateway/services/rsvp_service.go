package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

type RsvpService struct {
	Capacity int64
}

func NewRsvpService() internal_types.RsvpServiceInterface {
	return &RsvpService{Capacity: helpers.GetRsvpCapacity()}
}

func (s *RsvpService) GetRsvpView(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error) {
	user, err := s.getUser(ctx, db, authID)
	if err != nil {
		return nil, err
	}
	confirmed, err := CountConfirmed(ctx, db)
	if err != nil {
		return nil, err
	}
	return s.buildView(user, confirmed), nil
}

// ConfirmAttendance is the authoritative admission check. Direct invitees
// confirm unconditionally; everyone else races first-come-first-served
// against the capacity, and the guard lives inside the UPDATE itself so two
// concurrent confirms cannot both take the last spot. A second confirm from
// an already confirmed user is a no-op success.
func (s *RsvpService) ConfirmAttendance(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error) {
	user, err := s.getUser(ctx, db, authID)
	if err != nil {
		return nil, err
	}

	switch user.Status {
	case internal_types.UserStatusDeclined, internal_types.UserStatusDenied:
		return nil, ErrRsvpClosed
	case internal_types.UserStatusConfirmed:
		confirmed, err := CountConfirmed(ctx, db)
		if err != nil {
			return nil, err
		}
		return s.buildView(user, confirmed), nil
	}

	res := db.WithContext(ctx).Exec(`
		UPDATE users SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
		  AND (direct_invite = ? OR (SELECT count(*) FROM users u WHERE u.status = ?) < ?)`,
		internal_types.UserStatusConfirmed, time.Now().UTC(),
		user.ID, internal_types.UserStatusPending, internal_types.UserStatusWaitlisted,
		true, internal_types.UserStatusConfirmed, s.Capacity)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to confirm attendance: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// Event full: park pending users on the waitlist so a freed spot
		// can go to them later.
		if user.Status == internal_types.UserStatusPending {
			err := db.WithContext(ctx).
				Model(&internal_types.User{}).
				Where("id = ? AND status = ?", user.ID, internal_types.UserStatusPending).
				Update("status", internal_types.UserStatusWaitlisted).Error
			if err != nil {
				return nil, fmt.Errorf("failed to waitlist user: %w", err)
			}
		}
		return nil, ErrEventFull
	}

	user.Status = internal_types.UserStatusConfirmed
	confirmed, err := CountConfirmed(ctx, db)
	if err != nil {
		return nil, err
	}
	PublishConfirmedCount(confirmed)
	return s.buildView(user, confirmed), nil
}

// DeclineAttendance is allowed from any non-terminal state and is
// irreversible; the UI collects an explicit confirmation before calling it.
func (s *RsvpService) DeclineAttendance(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error) {
	user, err := s.getUser(ctx, db, authID)
	if err != nil {
		return nil, err
	}

	if user.Status == internal_types.UserStatusDeclined || user.Status == internal_types.UserStatusDenied {
		return nil, ErrRsvpClosed
	}

	wasConfirmed := user.Status == internal_types.UserStatusConfirmed
	err = db.WithContext(ctx).
		Model(&internal_types.User{}).
		Where("id = ?", user.ID).
		Update("status", internal_types.UserStatusDeclined).Error
	if err != nil {
		return nil, fmt.Errorf("failed to decline attendance: %w", err)
	}

	user.Status = internal_types.UserStatusDeclined
	confirmed, err := CountConfirmed(ctx, db)
	if err != nil {
		return nil, err
	}
	if wasConfirmed {
		// Declining frees a spot, push the new count
		PublishConfirmedCount(confirmed)
	}
	return s.buildView(user, confirmed), nil
}

func (s *RsvpService) getUser(ctx context.Context, db *gorm.DB, authID string) (*internal_types.User, error) {
	var user internal_types.User
	if err := db.WithContext(ctx).First(&user, "auth_id = ?", authID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

func (s *RsvpService) buildView(user *internal_types.User, confirmed int64) *internal_types.RsvpView {
	view := &internal_types.RsvpView{
		Status:         user.Status,
		DirectInvite:   user.DirectInvite,
		ConfirmedCount: confirmed,
		Capacity:       s.Capacity,
	}
	if remaining := s.Capacity - confirmed; remaining > 0 {
		view.SpotsRemaining = remaining
	}

	switch user.Status {
	case internal_types.UserStatusConfirmed:
		view.Message = "You've confirmed your attendance"
		view.CanDecline = true
	case internal_types.UserStatusDeclined, internal_types.UserStatusDenied:
		// Terminal, no RSVP controls at all
	case internal_types.UserStatusPending, internal_types.UserStatusWaitlisted:
		view.CanDecline = true
		if user.DirectInvite && user.Status == internal_types.UserStatusPending {
			view.CanConfirm = true
		} else {
			view.CanConfirm = confirmed < s.Capacity
			view.Message = helpers.SpotsLeftMessage(confirmed, s.Capacity)
		}
	}
	return view
}

// CountConfirmed is the point-read behind both the RSVP view and the live
// broadcaster's initial value.
func CountConfirmed(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&internal_types.User{}).
		Where("status = ?", internal_types.UserStatusConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed users: %w", err)
	}
	return count, nil
}

type MockRsvpService struct {
	GetRsvpViewFunc       func(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error)
	ConfirmAttendanceFunc func(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error)
	DeclineAttendanceFunc func(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error)
}

func (m *MockRsvpService) GetRsvpView(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error) {
	return m.GetRsvpViewFunc(ctx, db, authID)
}

func (m *MockRsvpService) ConfirmAttendance(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error) {
	return m.ConfirmAttendanceFunc(ctx, db, authID)
}

func (m *MockRsvpService) DeclineAttendance(ctx context.Context, db *gorm.DB, authID string) (*internal_types.RsvpView, error) {
	return m.DeclineAttendanceFunc(ctx, db, authID)
}
