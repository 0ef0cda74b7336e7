package types

import (
	"context"

	"gorm.io/gorm"
)

// RsvpView is what the RSVP page renders: the caller's admission state plus
// the live confirmed-count against capacity. CanConfirm is false for anyone
// already confirmed or in a terminal state, and for first-come-first-served
// callers once the event is full.
type RsvpView struct {
	Status         string `json:"status"`
	DirectInvite   bool   `json:"direct_invite"`
	ConfirmedCount int64  `json:"confirmed_count"`
	Capacity       int64  `json:"capacity"`
	SpotsRemaining int64  `json:"spots_remaining"`
	Message        string `json:"message"`
	CanConfirm     bool   `json:"can_confirm"`
	CanDecline     bool   `json:"can_decline"`
}

// RsvpServiceInterface gates final attendance confirmation. Confirm is
// capacity-checked server side; the live view is a convenience only.
type RsvpServiceInterface interface {
	GetRsvpView(ctx context.Context, db *gorm.DB, authID string) (*RsvpView, error)
	ConfirmAttendance(ctx context.Context, db *gorm.DB, authID string) (*RsvpView, error)
	DeclineAttendance(ctx context.Context, db *gorm.DB, authID string) (*RsvpView, error)
}
