package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/transport"
)

// setupTestDB swaps the transport singleton for a sqlmock-backed handle so
// handlers can call transport.GetDB without real Postgres env. The services
// under these tests are mocked, so the handle itself is never queried.
func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", helpers.GO_TEST_ENV)

	sqlDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}
	transport.SetTestDB(db)
	t.Cleanup(func() { transport.SetTestDB(nil) })
}

func withUser(req *http.Request, sub string) *http.Request {
	ctx := context.WithValue(req.Context(), helpers.USER_INFO_CTX_KEY, helpers.UserInfo{
		Sub:   sub,
		Email: sub + "@mtroyal.ca",
	})
	return req.WithContext(ctx)
}
