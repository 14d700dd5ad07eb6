package models

import "time"

// Rating is one donor review from one claimer for one completed post.
// Unique per (post_id, rater_id); immutable once created.
type Rating struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	PostID  uint   `gorm:"not null;uniqueIndex:idx_ratings_post_rater,priority:1" json:"post_id"`
	Post    *Post  `gorm:"foreignKey:PostID" json:"post,omitempty"`
	RaterID uint   `gorm:"not null;uniqueIndex:idx_ratings_post_rater,priority:2" json:"rater_id"`
	Rater   *User  `gorm:"foreignKey:RaterID" json:"rater,omitempty"`
	RateeID uint   `gorm:"not null;index" json:"ratee_id"`
	Ratee   *User  `gorm:"foreignKey:RateeID" json:"ratee,omitempty"`
	Stars   int    `gorm:"not null;check:stars >= 1 AND stars <= 5" json:"stars"`
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
}

// ClampStars bounds a raw star value to the valid [1,5] range.
func ClampStars(stars int) int {
	if stars < 1 {
		return 1
	}
	if stars > 5 {
		return 5
	}
	return stars
}
