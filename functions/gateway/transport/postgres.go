package transport

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	once   sync.Once
	testDB *gorm.DB
)

// GetDB returns the process-wide gorm handle. Tests inject their own via
// SetTestDB before any handler runs.
func GetDB() *gorm.DB {
	if os.Getenv("GO_ENV") == "test" && testDB != nil {
		return testDB
	}
	once.Do(func() {
		db = CreateDbClient()
	})
	return db
}

func SetTestDB(d *gorm.DB) {
	testDB = d
}

func CreateDbClient() *gorm.DB {
	host := os.Getenv("POSTGRES_HOST")
	port := os.Getenv("POSTGRES_PORT")
	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	dbname := os.Getenv("POSTGRES_DB")

	if host == "" || port == "" || user == "" || password == "" || dbname == "" {
		log.Fatalf("Missing required environment variables for Postgres")
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, dbname)
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Error connecting to Postgres: %v", err)
	}

	log.Println("Postgres connection established.")
	return gormDB
}
