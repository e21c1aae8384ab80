// Seeds a development database: schema, demo users, and one accepted
// booking so chat can be exercised immediately.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"jasaku/server/internal/database"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	schema, err := os.ReadFile("migrations/001_init.sql")
	if err != nil {
		log.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Println("Schema applied")

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	demoUsers := []struct {
		email, name, role string
	}{
		{"alice@example.com", "Alice", "customer"},
		{"bob@example.com", "Bob", "worker"},
		{"cindy@example.com", "Cindy", "worker"},
	}

	ids := make(map[string]string)
	for _, u := range demoUsers {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO users (email, name, role, password_hash)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, u.email, u.name, u.role, string(hash)).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.email, err)
		}
		ids[u.name] = id
		log.Printf("Seeded user %s (%s)", u.name, id)
	}

	var bookingID string
	err = pool.QueryRow(ctx, `
		INSERT INTO bookings (customer_id, worker_id, service, status, scheduled_at)
		VALUES ($1, $2, 'House cleaning', 'accepted', $3)
		RETURNING id
	`, ids["Alice"], ids["Bob"], time.Now().Add(48*time.Hour)).Scan(&bookingID)
	if err != nil {
		log.Fatalf("Failed to seed booking: %v", err)
	}
	log.Printf("Seeded booking %s (Alice -> Bob, accepted)", bookingID)
}
