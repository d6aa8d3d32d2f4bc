package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"chapel-site/config"
	"chapel-site/internal/repository"
	"chapel-site/pkg/database"
)

const usage = `
Chapel Site - Database CLI Tool

Usage:
  migrate [flags] [command]

Commands:
  up          Create or update all tables
  status      Show database connection status
  seed        Seed the support admin from ADMIN_* settings
  seed-dev    Seed the admin plus demo customers, conversations and reviews
  reset       Drop all tables and re-run migrations (DANGEROUS)
  truncate    Delete all rows (DANGEROUS)

Flags:
  -admin-email string  Admin email for seeding (default ADMIN_EMAIL)
  -admin-pass string   Admin password for seeding (default ADMIN_PASSWORD)
  -customers int       Demo customers for seed-dev (default 5)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed
  go run cmd/migrate/main.go -customers 10 seed-dev
  go run cmd/migrate/main.go reset
`

func main() {
	cfg := config.LoadConfig()

	adminEmail := flag.String("admin-email", cfg.AdminEmail, "Admin email for seeding")
	adminPass := flag.String("admin-pass", cfg.AdminPassword, "Admin password for seeding")
	customers := flag.Int("customers", 5, "Demo customers for seed-dev")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	database.Connect(cfg)
	defer database.Close()

	seedCfg := database.SeedConfig{
		AdminEmail:       *adminEmail,
		AdminPassword:    *adminPass,
		AdminDisplayName: cfg.AdminName,
	}
	if len(cfg.AdminUserIDs) > 0 {
		seedCfg.AdminID = cfg.AdminUserIDs[0]
	}

	switch command {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	case "seed":
		runSeed(seedCfg)
	case "seed-dev":
		seedCfg.DemoCustomers = *customers
		runSeed(seedCfg)
	case "reset":
		runReset()
	case "truncate":
		runTruncate()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("🚀 Running migrations UP...")

	if err := repository.InitSchema(database.DB); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func showStatus() {
	log.Println("🔍 Checking database status...")

	if err := database.Ping(); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	tables := []string{"users", "chat_rooms", "chat_messages", "contacts", "reviews"}
	for _, table := range tables {
		exists, err := database.TableExists(table)
		if err != nil {
			log.Printf("⚠️  Error checking table %s: %v", table, err)
			continue
		}
		if exists {
			count, _ := database.GetTableCount(table)
			log.Printf("✅ Table %-20s exists (%d rows)", table, count)
		} else {
			log.Printf("❌ Table %-20s does not exist", table)
		}
	}

	if err := database.HealthCheck(); err != nil {
		log.Printf("⚠️  Health check warning: %v", err)
	} else {
		log.Println("✅ Health check: PASSED")
	}
}

func runSeed(cfg database.SeedConfig) {
	log.Println("🌱 Seeding database...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := database.Seed(ctx, database.DB, cfg)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Admin user created/verified: %s (ID: %s)", result.AdminUser.Email, result.AdminUser.ID)
	if cfg.DemoCustomers > 0 {
		log.Println("📊 Seed Summary:")
		log.Printf("   - Customers: %d", len(result.Customers))
		log.Printf("   - Messages: %d", result.Messages)
		log.Printf("   - Reviews: %d", result.Reviews)
	}
	log.Println("✅ Seeding completed!")
}

func runReset() {
	log.Println("⚠️  WARNING: This will DROP all tables and re-run migrations!")

	log.Println("🗑️  Dropping all tables...")
	if err := database.DropAllTables(database.DB); err != nil {
		log.Fatalf("❌ Failed to drop tables: %v", err)
	}

	runMigrationsUp()
	log.Println("✅ Database reset completed!")
}

func runTruncate() {
	log.Println("⚠️  WARNING: This will delete all rows!")

	if err := database.TruncateAllTables(database.DB); err != nil {
		log.Fatalf("❌ Truncate failed: %v", err)
	}

	log.Println("✅ All tables truncated!")
}
