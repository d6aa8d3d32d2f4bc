package contact

import "time"

// Submission is one message left through the public contact form.
type Submission struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Phone     string    `gorm:"size:64;not null;default:''" json:"phone,omitempty"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	RemoteIP  string    `gorm:"size:64;not null;default:''" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Submission) TableName() string {
	return "contacts"
}
