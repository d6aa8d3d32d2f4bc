package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/review"
	"chapel-site/internal/domain/user"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	AdminID          string
	AdminEmail       string
	AdminPassword    string
	AdminDisplayName string
	// DemoCustomers is the number of sample customers, each with an open
	// conversation and a review. Zero seeds the admin only.
	DemoCustomers int
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	AdminUser *user.User
	Customers []*user.User
	Messages  int
	Reviews   int
}

var demoMessages = []string{
	"Hello, we would like to arrange a service for next week.",
	"Could you tell us which chapel rooms are available on Saturday?",
	"Is it possible to bring our own music for the ceremony?",
}

// Seed creates the support admin and, when requested, demo customers.
// Running it twice leaves the admin untouched.
func Seed(ctx context.Context, db *gorm.DB, cfg SeedConfig) (*SeedResult, error) {
	admin, err := seedAdminUser(ctx, db, cfg)
	if err != nil {
		return nil, err
	}
	result := &SeedResult{AdminUser: admin}
	if cfg.DemoCustomers <= 0 {
		return result, nil
	}

	users := repository.NewUserRepository(db)
	chats := repository.NewChatRepository(db)
	reviews := repository.NewReviewRepository(db)

	for i := 0; i < cfg.DemoCustomers; i++ {
		hashed, err := bcrypt.GenerateFromPassword([]byte("Customer@123!"), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		customer := &user.User{
			ID:           uuid.NewString(),
			Email:        fmt.Sprintf("customer%d@example.com", i+1),
			PasswordHash: string(hashed),
			DisplayName:  fmt.Sprintf("Customer %d", i+1),
			IsActive:     true,
		}
		if err := users.Create(ctx, customer); err != nil {
			if errors.Is(err, chapel_errors.ErrAlreadyExists) {
				log.Printf("Demo customer %s already exists, skipping", customer.Email)
				continue
			}
			return nil, err
		}
		result.Customers = append(result.Customers, customer)

		if _, err := chats.RecordSend(ctx, repository.SendRecord{
			RoomID:       customer.ID,
			SenderID:     customer.ID,
			Recipient:    chat.RoleAdmin,
			Text:         demoMessages[i%len(demoMessages)],
			CustomerName: customer.DisplayName,
		}); err != nil {
			return nil, fmt.Errorf("seed conversation: %w", err)
		}
		result.Messages++

		rv := &review.Review{
			AuthorID:   customer.ID,
			AuthorName: customer.DisplayName,
			Rating:     review.MaxRating - i%2,
			Text:       "Thank you for taking care of everything.",
		}
		if err := reviews.Create(ctx, rv); err != nil {
			return nil, fmt.Errorf("seed review: %w", err)
		}
		result.Reviews++
	}
	return result, nil
}

// seedAdminUser creates the admin user
func seedAdminUser(ctx context.Context, db *gorm.DB, cfg SeedConfig) (*user.User, error) {
	if strings.TrimSpace(cfg.AdminID) == "" {
		return nil, errors.New("admin id is required; set ADMIN_USER_IDS")
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil, errors.New("admin email and password are required")
	}

	users := repository.NewUserRepository(db)
	if existing, err := users.GetUserByEmail(ctx, cfg.AdminEmail); err == nil {
		if existing.ID != cfg.AdminID {
			return nil, fmt.Errorf("email %s belongs to user %s, not the configured admin", cfg.AdminEmail, existing.ID)
		}
		log.Println("Admin user already exists, skipping creation")
		return &existing, nil
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	adminUser := &user.User{
		ID:           cfg.AdminID,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hashedPassword),
		DisplayName:  cfg.AdminDisplayName,
		IsActive:     true,
	}
	if err := users.Create(ctx, adminUser); err != nil {
		return nil, err
	}

	log.Printf("Admin user seeded: %s (%s)", cfg.AdminEmail, adminUser.ID)
	return adminUser, nil
}

// TruncateAllTables deletes every row owned by the service.
func TruncateAllTables(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range repository.Models() {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DropAllTables removes every table owned by the service.
func DropAllTables(db *gorm.DB) error {
	return db.Migrator().DropTable(repository.Models()...)
}
