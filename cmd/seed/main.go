package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/careport/clinic-booking/internal/db"
)

// Seed password shared by every generated account; dev use only.
const seedPassword = "changeme123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	if err := seedUsers(context.Background(), pool, string(hash), "staff", 5); err != nil {
		log.Fatalf("seed staff: %v", err)
	}
	if err := seedUsers(context.Background(), pool, string(hash), "patient", 200); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSlots(context.Background(), pool, 120); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, passwordHash, role string, count int) error {
	log.Printf("seeding %d %s accounts", count, role)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		email := gofakeit.Email()

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, first_name, last_name, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (email) DO NOTHING
		`, id, email, passwordHash, first, last, role)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("%s accounts seeded", role)
	return nil
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d free slots", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Business-hour slots spread over the next four weeks.
	start := time.Now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	for i := 0; i < count; i++ {
		day := gofakeit.Number(0, 27)
		hour := gofakeit.Number(9, 16)
		dateTime := start.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)

		_, err := tx.Exec(ctx, `
			INSERT INTO slots (id, date_time, status, patient_id, created_at, updated_at)
			VALUES ($1, $2, 'free', NULL, now(), now())
		`, uuid.New(), dateTime)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("slots seeded")
	return nil
}
