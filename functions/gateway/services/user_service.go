package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

type UserService struct{}

func NewUserService() internal_types.UserServiceInterface {
	return &UserService{}
}

// RegisterUser persists the registration form. An existing row for the same
// auth id is treated as idempotent success, not a duplicate error: the user
// refreshed or double-submitted, give them their record back.
func (s *UserService) RegisterUser(ctx context.Context, db *gorm.DB, authID, email string, reg internal_types.RegistrationInsert) (*internal_types.UserProfile, error) {
	var existing internal_types.User
	err := db.WithContext(ctx).Preload("Interests").Preload("DietaryRestrictions").First(&existing, "auth_id = ?", authID).Error
	if err == nil {
		return toProfile(&existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	interests, err := resolveInterests(ctx, db, reg.Interests)
	if err != nil {
		return nil, err
	}
	dietary, err := resolveDietary(ctx, db, reg.DietaryRestrictions)
	if err != nil {
		return nil, err
	}

	user := internal_types.User{
		ID:                  uuid.NewString(),
		AuthID:              authID,
		Email:               email,
		FirstName:           reg.FirstName,
		LastName:            reg.LastName,
		GenderID:            &reg.GenderID,
		UniversityID:        &reg.UniversityID,
		MajorID:             &reg.MajorID,
		MarketingID:         &reg.MarketingID,
		YearOfStudy:         reg.YearOfStudy,
		Experience:          reg.Experience,
		PreviousAttendee:    reg.PreviousAttendee,
		Accommodations:      reg.Accommodations,
		Status:              internal_types.UserStatusPending,
		Interests:           interests,
		DietaryRestrictions: dietary,
	}

	// User row plus join rows land as one logical unit
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return toProfile(&user), nil
}

func (s *UserService) GetUserProfile(ctx context.Context, db *gorm.DB, authID string) (*internal_types.UserProfile, error) {
	var user internal_types.User
	err := db.WithContext(ctx).Preload("Interests").Preload("DietaryRestrictions").First(&user, "auth_id = ?", authID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return toProfile(&user), nil
}

// UpdateUserProfile applies a sparse update: absent fields stay untouched.
// Interests and dietary restrictions are replaced wholesale when present —
// nil keeps the existing rows, an explicit empty slice clears them. Email
// changes go through the identity provider and land as a pending marker
// until verified; the stored address is not touched here.
func (s *UserService) UpdateUserProfile(ctx context.Context, db *gorm.DB, authID string, update internal_types.UserProfileUpdate) (*internal_types.UserProfile, error) {
	var user internal_types.User
	err := db.WithContext(ctx).First(&user, "auth_id = ?", authID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	updates := map[string]interface{}{}
	if update.FirstName != nil {
		updates["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		updates["last_name"] = *update.LastName
	}
	if update.GenderID != nil {
		updates["gender_id"] = *update.GenderID
	}
	if update.UniversityID != nil {
		updates["university_id"] = *update.UniversityID
	}
	if update.MajorID != nil {
		updates["major_id"] = *update.MajorID
	}
	if update.MarketingID != nil {
		updates["marketing_id"] = *update.MarketingID
	}
	if update.YearOfStudy != nil {
		updates["year_of_study"] = *update.YearOfStudy
	}
	if update.Experience != nil {
		updates["experience"] = *update.Experience
	}
	if update.Accommodations != nil {
		updates["accommodations"] = *update.Accommodations
	}

	if update.Email != nil && *update.Email != user.Email {
		token, err := GetServiceAccessToken()
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate with identity provider: %w", err)
		}
		// Skip the provider round trip when this change was already requested
		pending, err := helpers.GetUserMetadataByKey(token, authID, helpers.PENDING_EMAIL_METADATA_KEY)
		if err != nil || pending != *update.Email {
			if err := helpers.UpdateUserEmail(token, authID, *update.Email); err != nil {
				return nil, fmt.Errorf("failed to update email at identity provider: %w", err)
			}
			if err := helpers.UpdateUserMetadataKey(token, authID, helpers.PENDING_EMAIL_METADATA_KEY, *update.Email); err != nil {
				log.Printf("ERR: failed to record pending email at identity provider: %v", err)
			}
		}
		updates["pending_email"] = *update.Email
		if err := QueueEmailVerification(ctx, user.ID, *update.Email); err != nil {
			// Verification delivery is best effort, the provider will
			// still gate the address until verified
			log.Printf("ERR: failed to queue email verification: %v", err)
		}
	}

	var interests []internal_types.Interest
	if update.Interests != nil {
		interests, err = resolveInterests(ctx, db, *update.Interests)
		if err != nil {
			return nil, err
		}
	}
	var dietary []internal_types.DietaryRestriction
	if update.DietaryRestrictions != nil {
		dietary, err = resolveDietary(ctx, db, *update.DietaryRestrictions)
		if err != nil {
			return nil, err
		}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return err
			}
		}
		if update.Interests != nil {
			if err := tx.Model(&user).Association("Interests").Replace(interests); err != nil {
				return err
			}
		}
		if update.DietaryRestrictions != nil {
			if err := tx.Model(&user).Association("DietaryRestrictions").Replace(dietary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUserProfile(ctx, db, authID)
}

func resolveInterests(ctx context.Context, db *gorm.DB, ids []int) ([]internal_types.Interest, error) {
	if len(ids) == 0 {
		return []internal_types.Interest{}, nil
	}
	var rows []internal_types.Interest
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch interests: %w", err)
	}
	if len(rows) != len(dedupe(ids)) {
		return nil, fmt.Errorf("one or more interest ids are invalid")
	}
	return rows, nil
}

func resolveDietary(ctx context.Context, db *gorm.DB, ids []int) ([]internal_types.DietaryRestriction, error) {
	if len(ids) == 0 {
		return []internal_types.DietaryRestriction{}, nil
	}
	var rows []internal_types.DietaryRestriction
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch dietary restrictions: %w", err)
	}
	if len(rows) != len(dedupe(ids)) {
		return nil, fmt.Errorf("one or more dietary restriction ids are invalid")
	}
	return rows, nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func toProfile(user *internal_types.User) *internal_types.UserProfile {
	interests := make([]int, 0, len(user.Interests))
	for _, i := range user.Interests {
		interests = append(interests, i.ID)
	}
	dietary := make([]int, 0, len(user.DietaryRestrictions))
	for _, d := range user.DietaryRestrictions {
		dietary = append(dietary, d.ID)
	}
	return &internal_types.UserProfile{
		ID:                  user.ID,
		FirstName:           user.FirstName,
		LastName:            user.LastName,
		Email:               user.Email,
		PendingEmail:        user.PendingEmail,
		GenderID:            user.GenderID,
		UniversityID:        user.UniversityID,
		MajorID:             user.MajorID,
		MarketingID:         user.MarketingID,
		YearOfStudy:         user.YearOfStudy,
		Experience:          user.Experience,
		PreviousAttendee:    user.PreviousAttendee,
		Accommodations:      user.Accommodations,
		Status:              user.Status,
		CheckedIn:           user.CheckedIn,
		Interests:           interests,
		DietaryRestrictions: dietary,
	}
}

type MockUserService struct {
	RegisterUserFunc      func(ctx context.Context, db *gorm.DB, authID, email string, reg internal_types.RegistrationInsert) (*internal_types.UserProfile, error)
	GetUserProfileFunc    func(ctx context.Context, db *gorm.DB, authID string) (*internal_types.UserProfile, error)
	UpdateUserProfileFunc func(ctx context.Context, db *gorm.DB, authID string, update internal_types.UserProfileUpdate) (*internal_types.UserProfile, error)
}

func (m *MockUserService) RegisterUser(ctx context.Context, db *gorm.DB, authID, email string, reg internal_types.RegistrationInsert) (*internal_types.UserProfile, error) {
	return m.RegisterUserFunc(ctx, db, authID, email, reg)
}

func (m *MockUserService) GetUserProfile(ctx context.Context, db *gorm.DB, authID string) (*internal_types.UserProfile, error) {
	return m.GetUserProfileFunc(ctx, db, authID)
}

func (m *MockUserService) UpdateUserProfile(ctx context.Context, db *gorm.DB, authID string, update internal_types.UserProfileUpdate) (*internal_types.UserProfile, error) {
	return m.UpdateUserProfileFunc(ctx, db, authID, update)
}
