package repository

import (
	"fmt"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/contact"
	"chapel-site/internal/domain/review"
	"chapel-site/internal/domain/user"

	"gorm.io/gorm"
)

// Models lists every table owned by the service.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&chat.Room{},
		&chat.Message{},
		&contact.Submission{},
		&review.Review{},
	}
}

// InitSchema runs gorm auto-migration for all models.
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
