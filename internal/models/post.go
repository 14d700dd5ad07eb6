package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	// PostStatusAvailable is the initial state; the post can be claimed.
	PostStatusAvailable PostStatus = "available"
	// PostStatusClaimed means a claimer has been assigned and pickup is pending.
	PostStatusClaimed PostStatus = "claimed"
	// PostStatusCompleted is terminal; the handover happened.
	PostStatusCompleted PostStatus = "completed"
	// PostStatusExpired is terminal; the expiry sweep retired the post.
	PostStatusExpired PostStatus = "expired"
)

// Terminal reports whether no further status transition is permitted.
func (s PostStatus) Terminal() bool {
	return s == PostStatusCompleted || s == PostStatusExpired
}

// PostKind distinguishes the two legacy listing shapes, collapsed into one model.
type PostKind string

const (
	// PostKindFoodPost is the canonical listing kind.
	PostKindFoodPost PostKind = "food_post"
	// PostKindFoodItem is the legacy single-item listing kind, kept for old chats.
	PostKindFoodItem PostKind = "food_item"
)

// ValidPostKind reports whether k is a known kind; the empty string maps to food_post.
func ValidPostKind(k PostKind) bool {
	return k == PostKindFoodPost || k == PostKindFoodItem
}

// Post is a food-sharing listing.
//
// Invariants: ClaimedByID is nil iff Status is available; Status only moves
// forward through available -> claimed -> completed, or available -> expired
// via the sweep; completed and expired are terminal.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Kind        PostKind   `gorm:"type:varchar(20);not null;default:'food_post'" json:"kind"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Quantity    string     `gorm:"not null" json:"quantity"`
	Category    string     `json:"category"`
	Address     string     `gorm:"not null" json:"address"`
	ImageURL    string     `json:"image_url"`
	Latitude    float64    `gorm:"index:idx_posts_location" json:"latitude"`
	Longitude   float64    `gorm:"index:idx_posts_location" json:"longitude"`
	ExpiresAt   time.Time  `gorm:"not null;index:idx_posts_status_expiry,priority:2" json:"expires_at"`
	Status      PostStatus `gorm:"type:varchar(20);not null;default:'available';index:idx_posts_status_expiry,priority:1" json:"status"`

	OwnerID     uint  `gorm:"not null;index" json:"owner_id"`
	Owner       User  `gorm:"foreignKey:OwnerID" json:"-"`
	ClaimedByID *uint `json:"claimed_by_id,omitempty"`
	ClaimedBy   *User `gorm:"foreignKey:ClaimedByID" json:"-"`

	// Public projections of the preloaded users, filled in by AfterFind.
	// Full user rows never serialize on a post; they carry email and home
	// coordinates.
	OwnerSummary     *DonorSummary `gorm:"-" json:"owner,omitempty"`
	ClaimedBySummary *DonorSummary `gorm:"-" json:"claimed_by,omitempty"`

	// DistanceKm is not persisted; computed for geo-filtered listings.
	DistanceKm float64 `gorm:"->;-:migration" json:"distance_km,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AfterFind runs once preloads have resolved and replaces the embedded users
// with their donor summaries.
func (p *Post) AfterFind(_ *gorm.DB) error {
	if p.Owner.ID != 0 {
		s := p.Owner.Summary()
		p.OwnerSummary = &s
	}
	if p.ClaimedBy != nil && p.ClaimedBy.ID != 0 {
		s := p.ClaimedBy.Summary()
		p.ClaimedBySummary = &s
	}
	return nil
}
