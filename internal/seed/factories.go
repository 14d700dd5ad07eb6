package seed

import (
	"fmt"
	"time"

	"mealbridge/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds realistic development fixtures.
type Factory struct {
	db *gorm.DB
}

func NewFactory(db *gorm.DB) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db}
}

var foodCategories = []string{
	"produce", "baked goods", "dairy", "pantry", "prepared meals", "beverages",
}

var foodTitles = []string{
	"Surplus sourdough loaves",
	"Garden tomatoes, more than we can eat",
	"Half tray of vegetable lasagna",
	"Unopened oat milk cartons",
	"CSA box overflow",
	"Bakery end-of-day pastries",
	"Homemade soup, frozen in portions",
	"Extra apples from our tree",
}

// CreateUser inserts a user with a known password ("password123") so seeded
// accounts can be logged into during development.
func (f *Factory) CreateUser(hashedPassword string, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: hashedPassword,
		Role:     models.RoleUser,
		// Scatter users around a city center so geo queries return results
		Latitude:  40.73 + gofakeit.Float64Range(-0.08, 0.08),
		Longitude: -73.99 + gofakeit.Float64Range(-0.08, 0.08),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost inserts a food listing owned by the given user.
func (f *Factory) CreatePost(owner *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Kind:        models.PostKindFoodPost,
		Title:       foodTitles[gofakeit.Number(0, len(foodTitles)-1)],
		Description: gofakeit.Paragraph(1, 2, 8, " "),
		Quantity:    fmt.Sprintf("%d %s", gofakeit.Number(1, 6), gofakeit.RandomString([]string{"portions", "bags", "boxes", "jars"})),
		Category:    foodCategories[gofakeit.Number(0, len(foodCategories)-1)],
		Address:     gofakeit.Street(),
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
		Latitude:    owner.Latitude + gofakeit.Float64Range(-0.005, 0.005),
		Longitude:   owner.Longitude + gofakeit.Float64Range(-0.005, 0.005),
		ExpiresAt:   time.Now().Add(time.Duration(gofakeit.Number(6, 96)) * time.Hour),
		Status:      models.PostStatusAvailable,
		OwnerID:     owner.ID,
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// ClaimPost marks the post claimed and opens its conversation with a couple
// of messages, mimicking what the API does on claim.
func (f *Factory) ClaimPost(post *models.Post, claimer *models.User) error {
	post.Status = models.PostStatusClaimed
	post.ClaimedByID = &claimer.ID
	if err := f.db.Save(post).Error; err != nil {
		return err
	}

	conv := &models.Conversation{
		PostID:   post.ID,
		PostKind: post.Kind,
	}
	if err := f.db.Create(conv).Error; err != nil {
		return err
	}
	participants := []models.ConversationParticipant{
		{ConversationID: conv.ID, UserID: post.OwnerID},
		{ConversationID: conv.ID, UserID: claimer.ID},
	}
	if err := f.db.Create(&participants).Error; err != nil {
		return err
	}

	messages := []models.Message{
		{ConversationID: conv.ID, SenderID: claimer.ID, Text: "Hi! Is this still available for pickup today?"},
		{ConversationID: conv.ID, SenderID: post.OwnerID, Text: "Yes, anytime before 8pm works."},
	}
	return f.db.Create(&messages).Error
}

// CompletePost finishes the handover and optionally leaves a rating.
func (f *Factory) CompletePost(post *models.Post, withRating bool) error {
	post.Status = models.PostStatusCompleted
	if err := f.db.Save(post).Error; err != nil {
		return err
	}
	if err := f.db.Model(&models.User{}).Where("id = ?", post.OwnerID).
		UpdateColumn("posts_completed", gorm.Expr("posts_completed + 1")).Error; err != nil {
		return err
	}

	if !withRating || post.ClaimedByID == nil {
		return nil
	}

	stars := gofakeit.Number(3, 5)
	rating := &models.Rating{
		PostID:  post.ID,
		RaterID: *post.ClaimedByID,
		RateeID: post.OwnerID,
		Stars:   stars,
		Comment: gofakeit.RandomString([]string{
			"Friendly and punctual, food was great.",
			"Everything as described, thank you!",
			"Smooth pickup, would claim again.",
		}),
	}
	if err := f.db.Create(rating).Error; err != nil {
		return err
	}

	var donor models.User
	if err := f.db.First(&donor, post.OwnerID).Error; err != nil {
		return err
	}
	newCount := donor.RatingCount + 1
	newAverage := (donor.Rating*float64(donor.RatingCount) + float64(stars)) / float64(newCount)
	return f.db.Model(&donor).Updates(map[string]interface{}{
		"rating":       newAverage,
		"rating_count": newCount,
	}).Error
}
