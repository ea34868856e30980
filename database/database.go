package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"brandkit-app/internal/domain/assets"
	"brandkit-app/internal/domain/billing"
	"brandkit-app/internal/domain/credits"
	"brandkit-app/internal/domain/users"
	"brandkit-app/internal/domain/waitlist"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("❌ Failed to access connection pool:", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := DB.AutoMigrate(
		// accounts
		&users.User{},
		&users.VerificationToken{},

		// ledger
		&credits.Transaction{},
		&billing.Purchase{},

		// generation artifacts
		&assets.Project{},
		&assets.BrandAsset{},

		// waitlist
		&waitlist.WaitlistUser{},
	); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
}
