package db

import (
	"chromebook_lending/models"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{}, &models.Credential{}, &models.Invite{},
		&models.Device{}, &models.Loan{},
		&models.Reservation{},
		&models.InventoryAudit{}, &models.AuditItem{},
		&models.ActivityLog{},
	); err != nil {
		return err
	}

	// At most one open loan per device.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_open_per_device
	  ON %s (device_id)
	  WHERE return_date IS NULL;
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// Faster "current loan" lookups.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_device_loandate_desc
	  ON %s (device_id, loan_date DESC)
	  WHERE return_date IS NULL;
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// At most one active audit. The constant expression makes the partial
	// index cover every active row, so a second INSERT with status='active'
	// fails regardless of its other columns.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_single_active
	  ON %s ((TRUE))
	  WHERE status = 'active';
	`, models.AuditTable, models.AuditTable)).Error; err != nil {
		return err
	}

	return nil
}
