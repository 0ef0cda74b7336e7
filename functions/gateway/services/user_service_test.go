package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

func expectUserWithEmptyAssociations(mock sqlmock.Sqlmock, userID, authID string) {
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "auth_id", "email", "first_name", "last_name", "status"}).
			AddRow(userID, authID, "jordan@mtroyal.ca", "Jordan", "Lee", internal_types.UserStatusPending))
	mock.ExpectQuery(`SELECT \* FROM "user_dietary_restrictions"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "dietary_restriction_id"}))
	mock.ExpectQuery(`SELECT \* FROM "user_interests"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "interest_id"}))
}

func TestRegisterUserIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &UserService{}

	userID := uuid.NewString()
	authID := "auth-" + userID

	// Existing row for the auth id short-circuits to the stored profile
	expectUserWithEmptyAssociations(mock, userID, authID)

	profile, err := svc.RegisterUser(context.Background(), db, authID, "jordan@mtroyal.ca", internal_types.RegistrationInsert{
		FirstName: "Jordan",
		LastName:  "Lee",
	})
	if err != nil {
		t.Fatalf("double-submit should return the existing profile, got %v", err)
	}
	if profile.ID != userID {
		t.Errorf("expected existing user id %s, got %s", userID, profile.ID)
	}
	expectationsMet(t, mock)
}

func TestRegisterUserRejectsUnknownInterest(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &UserService{}

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	// only one of the two requested interest ids exists
	mock.ExpectQuery(`SELECT \* FROM "interests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label"}).AddRow(1, "AI / ML"))

	_, err := svc.RegisterUser(context.Background(), db, "auth-new", "new@mtroyal.ca", internal_types.RegistrationInsert{
		FirstName: "Sam",
		LastName:  "Nguyen",
		Interests: []int{1, 99},
	})
	if err == nil || !strings.Contains(err.Error(), "interest ids are invalid") {
		t.Fatalf("expected invalid interest error, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUpdateUserProfileSparse(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &UserService{}

	userID := uuid.NewString()
	authID := "auth-" + userID

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "auth_id", "email", "first_name", "last_name"}).
			AddRow(userID, authID, "jordan@mtroyal.ca", "Jordan", "Lee"))
	// nil association slices never touch the join tables
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectUserWithEmptyAssociations(mock, userID, authID)

	first := "Jordana"
	profile, err := svc.UpdateUserProfile(context.Background(), db, authID, internal_types.UserProfileUpdate{
		FirstName: &first,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if profile.ID != userID {
		t.Errorf("expected profile for %s, got %s", userID, profile.ID)
	}
	expectationsMet(t, mock)
}

func TestUpdateUserProfileEmptySlicesClearAssociations(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &UserService{}

	userID := uuid.NewString()
	authID := "auth-" + userID

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "auth_id", "email", "first_name", "last_name"}).
			AddRow(userID, authID, "jordan@mtroyal.ca", "Jordan", "Lee"))
	// explicit empty slices drop every join row; no lookup reads needed
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "user_interests"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "user_dietary_restrictions"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectUserWithEmptyAssociations(mock, userID, authID)

	empty := []int{}
	profile, err := svc.UpdateUserProfile(context.Background(), db, authID, internal_types.UserProfileUpdate{
		Interests:           &empty,
		DietaryRestrictions: &empty,
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(profile.Interests) != 0 || len(profile.DietaryRestrictions) != 0 {
		t.Errorf("expected cleared associations, got %+v", profile)
	}
	expectationsMet(t, mock)
}

func TestUpdateUserProfileNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &UserService{}

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.UpdateUserProfile(context.Background(), db, "auth-missing", internal_types.UserProfileUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetUserProfileNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &UserService{}

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.GetUserProfile(context.Background(), db, "auth-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestDedupe(t *testing.T) {
	got := dedupe([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
