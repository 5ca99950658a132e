package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/movewell/booking-server/internal/db"
)

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

	if err := seedServices(context.Background(), pool); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedPackages(context.Background(), pool); err != nil {
		log.Fatalf("seed packages: %v", err)
	}
	if err := seedWindows(context.Background(), pool); err != nil {
		log.Fatalf("seed windows: %v", err)
	}
	if err := seedClients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed clients: %v", err)
	}

	log.Println("seed complete")
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	services := []struct {
		name     string
		duration int
		price    int64
	}{
		{"Personal Training Session", 60, 9500},
		{"Sports Massage", 60, 11000},
		{"Express Massage", 30, 6000},
		{"Mobility Assessment", 45, 8500},
		{"Yoga Session", 60, 7500},
		{"Nutrition Consultation", 45, 9000},
		{"Recovery Stretch", 30, 5500},
	}

	log.Printf("seeding %d services", len(services))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range services {
		desc := gofakeit.Sentence(12)
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, description, duration_minutes, price_cents, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, now(), now())
		`, uuid.New(), s.name, desc, s.duration, s.price)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("services seeded")
	return nil
}

func seedPackages(ctx context.Context, pool *pgxpool.Pool) error {
	packages := []struct {
		name     string
		sessions int
		price    int64
	}{
		{"5-Session Starter Pack", 5, 42500},
		{"10-Session Pack", 10, 80000},
		{"20-Session Commitment Pack", 20, 150000},
	}

	log.Printf("seeding %d packages", len(packages))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, p := range packages {
		desc := gofakeit.Sentence(10)
		_, err := tx.Exec(ctx, `
			INSERT INTO packages (id, name, description, session_count, price_cents, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, now(), now())
		`, uuid.New(), p.name, desc, p.sessions, p.price)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("packages seeded")
	return nil
}

func seedWindows(ctx context.Context, pool *pgxpool.Pool) error {
	// Split shifts on weekdays, a short Saturday morning, Sundays closed.
	type window struct {
		weekday    int
		start, end int // minutes from midnight
	}

	var windows []window
	for wd := 1; wd <= 5; wd++ {
		windows = append(windows,
			window{weekday: wd, start: 8 * 60, end: 12 * 60},
			window{weekday: wd, start: 13 * 60, end: 18 * 60},
		)
	}
	windows = append(windows, window{weekday: 6, start: 9 * 60, end: 13 * 60})

	log.Printf("seeding %d availability windows", len(windows))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, w := range windows {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_windows (id, weekday, start_minute, end_minute, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, now(), now())
		`, uuid.New(), w.weekday, w.start, w.end)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("availability windows seeded")
	return nil
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d clients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			phone := gofakeit.Phone()
			_, err := tx.Exec(ctx, `
				INSERT INTO clients (id, name, email, phone, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Email(), phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("clients seeded: %d/%d", end, count)
	}

	log.Println("clients seeded")
	return nil
}
