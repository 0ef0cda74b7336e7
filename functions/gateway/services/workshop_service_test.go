package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func workshopRow(id string, maxCapacity int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "max_capacity", "is_active"}).
		AddRow(id, "Intro to Docker", maxCapacity, true)
}

// expectResolveUser matches the auth-subject-to-user-row lookup that fronts
// every registration operation.
func expectResolveUser(mock sqlmock.Sqlmock, userID string) {
	mock.ExpectQuery(`SELECT "id" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID))
}

func TestRegisterForWorkshopSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	workshopID := uuid.NewString()
	userID := uuid.NewString()

	expectResolveUser(mock, userID)
	mock.ExpectQuery(`SELECT \* FROM "workshops"`).
		WillReturnRows(workshopRow(workshopID, 30))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "workshop_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO workshop_registrations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// publishCount re-reads the count after the insert lands
	mock.ExpectQuery(`SELECT count\(\*\) FROM "workshop_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	reg, err := svc.RegisterForWorkshop(context.Background(), db, "318095052266856449", workshopID)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if reg.UserID != userID || reg.WorkshopID != workshopID {
		t.Errorf("registration has wrong ids: %+v", reg)
	}
	if reg.ID == "" {
		t.Error("expected a generated registration id")
	}
	expectationsMet(t, mock)
}

// The registration row must carry our internal user uuid; the provider
// subject only keys the lookup. Admin joins on users.id depend on this.
func TestRegisterForWorkshopKeysInternalUserID(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	workshopID := uuid.NewString()
	userID := uuid.NewString()
	authID := "318095052266856449"

	expectResolveUser(mock, userID)
	mock.ExpectQuery(`SELECT \* FROM "workshops"`).
		WillReturnRows(workshopRow(workshopID, 30))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "workshop_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO workshop_registrations`).
		WithArgs(sqlmock.AnyArg(), userID, sqlmock.AnyArg(), workshopID, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "workshop_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	reg, err := svc.RegisterForWorkshop(context.Background(), db, authID, workshopID)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if reg.UserID != userID {
		t.Errorf("expected internal user id %q on the row, got %q", userID, reg.UserID)
	}
	if reg.UserID == authID {
		t.Error("registration row must not carry the auth subject")
	}
	expectationsMet(t, mock)
}

func TestRegisterForWorkshopNoAccount(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	mock.ExpectQuery(`SELECT "id" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.RegisterForWorkshop(context.Background(), db, "318095052266856449", uuid.NewString())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestRegisterForWorkshopFull(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	workshopID := uuid.NewString()

	expectResolveUser(mock, uuid.NewString())
	mock.ExpectQuery(`SELECT \* FROM "workshops"`).
		WillReturnRows(workshopRow(workshopID, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "workshop_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// the guarded insert matches no row when the workshop is at capacity
	mock.ExpectExec(`INSERT INTO workshop_registrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.RegisterForWorkshop(context.Background(), db, "318095052266856449", workshopID)
	if !errors.Is(err, ErrWorkshopFull) {
		t.Fatalf("expected ErrWorkshopFull, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestRegisterForWorkshopDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	workshopID := uuid.NewString()

	expectResolveUser(mock, uuid.NewString())
	mock.ExpectQuery(`SELECT \* FROM "workshops"`).
		WillReturnRows(workshopRow(workshopID, 30))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "workshop_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.RegisterForWorkshop(context.Background(), db, "318095052266856449", workshopID)
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestRegisterForWorkshopNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	expectResolveUser(mock, uuid.NewString())
	mock.ExpectQuery(`SELECT \* FROM "workshops"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.RegisterForWorkshop(context.Background(), db, "318095052266856449", uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUnregisterFromWorkshop(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	expectResolveUser(mock, uuid.NewString())
	mock.ExpectExec(`DELETE FROM "workshop_registrations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "workshop_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	if err := svc.UnregisterFromWorkshop(context.Background(), db, "318095052266856449", uuid.NewString()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUnregisterFromWorkshopNotRegistered(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	expectResolveUser(mock, uuid.NewString())
	mock.ExpectExec(`DELETE FROM "workshop_registrations"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.UnregisterFromWorkshop(context.Background(), db, "318095052266856449", uuid.NewString())
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetWorkshopsForUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	fullID := uuid.NewString()
	openID := uuid.NewString()
	userID := uuid.NewString()

	mock.ExpectQuery(`SELECT \* FROM "workshops"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "max_capacity", "is_active"}).
			AddRow(fullID, "Resume Review", int64(2), true).
			AddRow(openID, "Intro to Docker", int64(0), true))
	mock.ExpectQuery(`SELECT workshop_id`).
		WillReturnRows(sqlmock.NewRows([]string{"workshop_id", "count"}).
			AddRow(fullID, int64(2)).
			AddRow(openID, int64(7)))
	expectResolveUser(mock, userID)
	mock.ExpectQuery(`SELECT "workshop_id" FROM "workshop_registrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"workshop_id"}).AddRow(openID))

	workshops, err := svc.GetWorkshopsForUser(context.Background(), db, "318095052266856449")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(workshops) != 2 {
		t.Fatalf("expected 2 workshops, got %d", len(workshops))
	}
	if !workshops[0].IsFull || workshops[0].IsRegistered {
		t.Errorf("expected first workshop full and unregistered, got %+v", workshops[0])
	}
	// capacity 0 means unlimited and can never report full
	if workshops[1].IsFull || !workshops[1].IsRegistered {
		t.Errorf("expected second workshop open and registered, got %+v", workshops[1])
	}
	if workshops[1].CurrentRegistrations != 7 {
		t.Errorf("expected count 7, got %d", workshops[1].CurrentRegistrations)
	}
	expectationsMet(t, mock)
}

func TestGetWorkshopsForUserBeforeRegistration(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	workshopID := uuid.NewString()

	mock.ExpectQuery(`SELECT \* FROM "workshops"`).
		WillReturnRows(workshopRow(workshopID, 30))
	mock.ExpectQuery(`SELECT workshop_id`).
		WillReturnRows(sqlmock.NewRows([]string{"workshop_id", "count"}).
			AddRow(workshopID, int64(5)))
	mock.ExpectQuery(`SELECT "id" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	workshops, err := svc.GetWorkshopsForUser(context.Background(), db, "318095052266856449")
	if err != nil {
		t.Fatalf("expected browsing to work without an account, got %v", err)
	}
	if len(workshops) != 1 || workshops[0].IsRegistered {
		t.Errorf("expected one unregistered workshop, got %+v", workshops)
	}
	expectationsMet(t, mock)
}

func TestGetAllWorkshops(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	activeID := uuid.NewString()
	hiddenID := uuid.NewString()

	mock.ExpectQuery(`SELECT \* FROM "workshops"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "max_capacity", "is_active"}).
			AddRow(activeID, "Resume Review", int64(20), true).
			AddRow(hiddenID, "Intro to Docker", int64(10), false))
	mock.ExpectQuery(`SELECT workshop_id`).
		WillReturnRows(sqlmock.NewRows([]string{"workshop_id", "count"}).
			AddRow(activeID, int64(3)))

	workshops, err := svc.GetAllWorkshops(context.Background(), db)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(workshops) != 2 {
		t.Fatalf("expected inactive workshops in the dashboard list, got %d rows", len(workshops))
	}
	if workshops[0].CurrentRegistrations != 3 || workshops[1].CurrentRegistrations != 0 {
		t.Errorf("unexpected counts: %+v", workshops)
	}
	expectationsMet(t, mock)
}

func TestDeleteWorkshopNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := &WorkshopService{}

	mock.ExpectExec(`DELETE FROM "workshops"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.DeleteWorkshop(context.Background(), db, uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}
