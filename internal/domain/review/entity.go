package review

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a public testimonial left by a signed-in customer.
type Review struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID   string    `gorm:"size:36;index;not null" json:"author_id"`
	AuthorName string    `gorm:"size:255;not null" json:"author_name"`
	Rating     int       `gorm:"not null" json:"rating"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
