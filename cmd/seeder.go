package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"guide_withdrawals", "guide_earnings", "payments", "bookings", "trips", "mountains", "guides", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		users := []struct {
			Name  string
			Email string
			Role  string
		}{
			{"Raka Pendaki", "raka@mail.com", "user"},
			{"Sari Pendaki", "sari@mail.com", "user"},
			{"Bayu Guide", "bayu@mail.com", "guide"},
			{"Admin", "admin@mail.com", "admin"},
		}

		for _, u := range users {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Println("user already exists:", u.Email)
				continue
			}
			if err := db.Exec(
				"INSERT INTO users (name, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, now(), now())",
				u.Name, u.Email, string(hash), u.Role).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Println("Seeded user:", u.Email)
		}

		var guideUserID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "bayu@mail.com").Row().Scan(&guideUserID); err != nil {
			log.Fatalf("failed to look up guide user: %v", err)
		}

		var guideID int64
		if err := db.Raw("SELECT id FROM guides WHERE user_id = ?", guideUserID).Row().Scan(&guideID); err != nil {
			if err := db.Exec(
				"INSERT INTO guides (user_id, name, email, created_at, updated_at) VALUES (?, ?, ?, now(), now())",
				guideUserID, "Bayu Guide", "bayu@mail.com").Error; err != nil {
				log.Fatalf("failed to insert guide: %v", err)
			}
			if err := db.Raw("SELECT id FROM guides WHERE user_id = ?", guideUserID).Row().Scan(&guideID); err != nil {
				log.Fatalf("failed to look up seeded guide: %v", err)
			}
			fmt.Println("Seeded guide profile for bayu@mail.com")
		}

		var mountainID int64
		if err := db.Raw("SELECT id FROM mountains WHERE name = ?", "Gunung Rinjani").Row().Scan(&mountainID); err != nil {
			if err := db.Exec(
				"INSERT INTO mountains (name, location, elevation, created_at, updated_at) VALUES (?, ?, ?, now(), now())",
				"Gunung Rinjani", "Lombok, NTB", 3726).Error; err != nil {
				log.Fatalf("failed to insert mountain: %v", err)
			}
			if err := db.Raw("SELECT id FROM mountains WHERE name = ?", "Gunung Rinjani").Row().Scan(&mountainID); err != nil {
				log.Fatalf("failed to look up seeded mountain: %v", err)
			}
			fmt.Println("Seeded mountain: Gunung Rinjani")
		}

		var tripID int64
		if err := db.Raw("SELECT id FROM trips WHERE guide_id = ? AND title = ?", guideID, "Rinjani Summit 3D2N").Row().Scan(&tripID); err != nil {
			if err := db.Exec(
				`INSERT INTO trips (guide_id, mountain_id, title, price, capacity, status, start_date, end_date, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, 'open', now() + interval '14 days', now() + interval '17 days', now(), now())`,
				guideID, mountainID, "Rinjani Summit 3D2N", int64(1500000), 8).Error; err != nil {
				log.Fatalf("failed to insert trip: %v", err)
			}
			fmt.Println("Seeded trip: Rinjani Summit 3D2N")
		}

		fmt.Println("Seeding completed")
	},
}
