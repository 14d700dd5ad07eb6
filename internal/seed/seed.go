// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"

	"mealbridge/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with users, listings in every lifecycle state,
// conversations, and ratings. All seeded accounts use password "password123".
func Seed(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 60
	}

	if opts.ShouldClean {
		log.Println("Cleaning existing data...")
		if err := clean(db); err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	factory := NewFactory(db)

	log.Printf("Creating %d users...", opts.NumUsers)
	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser(string(hashedPassword))
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}

	log.Printf("Creating %d posts...", opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		owner := users[rand.Intn(len(users))]
		post, err := factory.CreatePost(owner)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}

		// Roughly: 40% stay available, 25% claimed, 25% completed, 10% expired
		roll := rand.Intn(100)
		switch {
		case roll < 40:
			// leave available
		case roll < 65:
			claimer := pickClaimer(users, owner.ID)
			if err := factory.ClaimPost(post, claimer); err != nil {
				return fmt.Errorf("claim post: %w", err)
			}
		case roll < 90:
			claimer := pickClaimer(users, owner.ID)
			if err := factory.ClaimPost(post, claimer); err != nil {
				return fmt.Errorf("claim post: %w", err)
			}
			if err := factory.CompletePost(post, rand.Intn(100) < 70); err != nil {
				return fmt.Errorf("complete post: %w", err)
			}
		default:
			if err := db.Model(post).Update("status", models.PostStatusExpired).Error; err != nil {
				return fmt.Errorf("expire post: %w", err)
			}
		}
	}

	log.Println("Seeding complete")
	return nil
}

func pickClaimer(users []*models.User, ownerID uint) *models.User {
	for {
		candidate := users[rand.Intn(len(users))]
		if candidate.ID != ownerID {
			return candidate
		}
	}
}

func clean(db *gorm.DB) error {
	// Delete children before parents
	tables := []string{
		"ratings",
		"messages",
		"conversation_participants",
		"conversations",
		"posts",
		"users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
