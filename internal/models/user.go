// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role constants for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a Mealbridge account: identity plus aggregate donor reputation.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	// Default pickup location, used as a fallback for new posts.
	Latitude  float64 `gorm:"index:idx_users_location" json:"latitude"`
	Longitude float64 `gorm:"index:idx_users_location" json:"longitude"`

	// PostsCompleted counts completed handovers where this user was the donor.
	PostsCompleted int `gorm:"not null;default:0" json:"posts_completed"`
	// Rating is the running average of RatingCount star values, rounded to 2 dp.
	Rating      float64 `gorm:"not null;default:0" json:"rating"`
	RatingCount int     `gorm:"not null;default:0" json:"rating_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:OwnerID" json:"posts,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DonorSummary is the public slice of a user embedded in post listings.
type DonorSummary struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	PostsCompleted int     `json:"posts_completed"`
	Rating         float64 `json:"rating"`
	RatingCount    int     `json:"rating_count"`
}

// Summary converts the user into its public donor representation.
func (u *User) Summary() DonorSummary {
	return DonorSummary{
		ID:             u.ID,
		Name:           u.Name,
		PostsCompleted: u.PostsCompleted,
		Rating:         u.Rating,
		RatingCount:    u.RatingCount,
	}
}
