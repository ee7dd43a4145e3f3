package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/vntravel/booking-backend/internal/config"
)

type seedTour struct {
	name     string
	price    float64
	duration string
}

var sampleTours = []seedTour{
	{"Ha Long Bay Cruise", 2500000, "3 days 2 nights"},
	{"Sapa Trekking Adventure", 1800000, "2 days 1 night"},
	{"Hoi An Ancient Town", 1200000, "1 day"},
	{"Mekong Delta Explorer", 1500000, "2 days 1 night"},
	{"Phong Nha Caves", 2000000, "2 days 1 night"},
	{"Hue Imperial City", 1000000, "1 day"},
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := seedTours(db, logger); err != nil {
		logger.Fatalf("Failed to seed tours: %v", err)
	}
	if err := seedVouchers(db, logger); err != nil {
		logger.Fatalf("Failed to seed vouchers: %v", err)
	}

	logger.Info("Seeding complete")
}

// seedTours inserts the sample tours and gives each one ten upcoming
// departures. Re-running is a no-op for tours that already exist.
func seedTours(db *sqlx.DB, logger *logrus.Logger) error {
	for _, t := range sampleTours {
		var tourID string
		err := db.QueryRow(`
			INSERT INTO tours (id, name, price, duration)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name) DO NOTHING
			RETURNING id
		`, uuid.New().String(), t.name, t.price, t.duration).Scan(&tourID)
		if err != nil {
			// No row returned means the tour already exists.
			logger.WithField("tour", t.name).Info("Tour already seeded, skipping")
			continue
		}

		for i := 1; i <= 10; i++ {
			departure := time.Now().AddDate(0, 0, 7*i)
			seats := 15 + rand.Intn(16)
			_, err := db.Exec(`
				INSERT INTO tour_schedules (
					id, tour_id, departure_date, return_date, price,
					available_seats, total_seats
				) VALUES ($1, $2, $3, $4, NULL, $5, $5)
			`, uuid.New().String(), tourID, departure, departure.AddDate(0, 0, 2), seats)
			if err != nil {
				return fmt.Errorf("failed to seed schedule for %s: %w", t.name, err)
			}
		}

		logger.WithField("tour", t.name).Info("Seeded tour with 10 departures")
	}

	return nil
}

// seedVouchers inserts the demo discount codes
func seedVouchers(db *sqlx.DB, logger *logrus.Logger) error {
	expiry := time.Now().AddDate(0, 6, 0)

	_, err := db.Exec(`
		INSERT INTO vouchers (
			id, code, discount_type, value, max_discount,
			expires_at, usage_limit, used_count, is_active
		) VALUES ($1, 'SUMMER2024', 'PERCENT', 15, 300000, $2, 100, 0, TRUE)
		ON CONFLICT (code) DO NOTHING
	`, uuid.New().String(), expiry)
	if err != nil {
		return fmt.Errorf("failed to seed SUMMER2024: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO vouchers (
			id, code, discount_type, value, max_discount,
			expires_at, usage_limit, used_count, is_active
		) VALUES ($1, 'WELCOME50K', 'FIXED', 50000, NULL, NULL, NULL, 0, TRUE)
		ON CONFLICT (code) DO NOTHING
	`, uuid.New().String())
	if err != nil {
		return fmt.Errorf("failed to seed WELCOME50K: %w", err)
	}

	logger.Info("Seeded vouchers SUMMER2024 and WELCOME50K")
	return nil
}
