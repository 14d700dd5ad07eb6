package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"mealbridge/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{
		Title:     "Sourdough loaves",
		Quantity:  "2 loaves",
		Address:   "12 Baker St",
		OwnerID:   1,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Claim(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		rowsAffected int64
		wantClaimed  bool
	}{
		{name: "Wins The Claim", rowsAffected: 1, wantClaimed: true},
		{name: "Already Claimed", rowsAffected: 0, wantClaimed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET`)).
				WithArgs(2, "claimed", sqlmock.AnyArg(), 1, "available").
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))
			mock.ExpectCommit()

			claimed, err := repo.Claim(ctx, 1, 2)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantClaimed, claimed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepository_Complete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	tests := []struct {
		name          string
		rowsAffected  int64
		wantCompleted bool
	}{
		{name: "Completes", rowsAffected: 1, wantCompleted: true},
		{name: "Not Claimed", rowsAffected: 0, wantCompleted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "status"=$1`)).
				WithArgs("completed", sqlmock.AnyArg(), 1, "claimed").
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))
			mock.ExpectCommit()

			completed, err := repo.Complete(ctx, 1)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantCompleted, completed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostRepository_ExpireDue(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "status"=$1`)).
		WithArgs("expired", sqlmock.AnyArg(), "available", now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	swept, err := repo.ExpireDue(ctx, now)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), swept)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListActive_GeoFilter(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT posts\.\*, .*acos.* FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "owner_id", "distance_km"}).
			AddRow(1, "Apples", 10, 1.2))
	// Owner preload
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(10, "Dana"))

	posts, err := repo.ListActive(ctx, PostFilter{Lat: 52.52, Lng: 13.40, RadiusKm: 5}, 20, 0)
	assert.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.InDelta(t, 1.2, posts[0].DistanceKm, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CountByStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, count(*) as count FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("available", 4).
			AddRow("completed", 2))

	counts, err := repo.CountByStatus(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), counts[models.PostStatusAvailable])
	assert.Equal(t, int64(2), counts[models.PostStatusCompleted])
	assert.NoError(t, mock.ExpectationsWereMet())
}
