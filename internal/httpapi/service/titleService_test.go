package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"reviewhub/internal/httpapi/models"
)

func testTitle(id int64) *models.Title {
	return &models.Title{ID: id, Name: "A Title", Year: 1999}
}

func TestTitleGetByID_AnnotatesRating(t *testing.T) {
	mockTitleRepo := new(MockTitleRepository)
	ratings := newFakeRatingCache()
	titleService := NewTitleService(mockTitleRepo, nil, nil, ratings)

	title := testTitle(7)
	mockTitleRepo.On("GetByID", mock.Anything, int64(7)).Return(title, nil)
	mockTitleRepo.On("AverageScore", mock.Anything, int64(7)).Return(intPtr(7), nil)

	resp, err := titleService.GetByID(context.Background(), 7)

	assert.NoError(t, err)
	assert.NotNil(t, resp.Rating)
	assert.Equal(t, 7, *resp.Rating)

	// The computed rating must have been written through to the cache.
	cached, ok := ratings.Get(context.Background(), 7)
	assert.True(t, ok)
	assert.Equal(t, 7, *cached)
}

func TestTitleGetByID_CacheHitSkipsRecompute(t *testing.T) {
	mockTitleRepo := new(MockTitleRepository)
	ratings := newFakeRatingCache()
	ratings.Set(context.Background(), 7, intPtr(4))
	titleService := NewTitleService(mockTitleRepo, nil, nil, ratings)

	title := testTitle(7)
	mockTitleRepo.On("GetByID", mock.Anything, int64(7)).Return(title, nil)

	resp, err := titleService.GetByID(context.Background(), 7)

	assert.NoError(t, err)
	assert.Equal(t, 4, *resp.Rating)
	mockTitleRepo.AssertNotCalled(t, "AverageScore", mock.Anything, mock.Anything)
}

func TestTitleGetByID_NoReviewsMeansNilRating(t *testing.T) {
	mockTitleRepo := new(MockTitleRepository)
	ratings := newFakeRatingCache()
	titleService := NewTitleService(mockTitleRepo, nil, nil, ratings)

	title := testTitle(9)
	mockTitleRepo.On("GetByID", mock.Anything, int64(9)).Return(title, nil)
	mockTitleRepo.On("AverageScore", mock.Anything, int64(9)).Return(nil, nil)

	resp, err := titleService.GetByID(context.Background(), 9)

	assert.NoError(t, err)
	assert.Nil(t, resp.Rating)

	// "No reviews" is cached too, as a present-but-nil entry.
	cached, ok := ratings.Get(context.Background(), 9)
	assert.True(t, ok)
	assert.Nil(t, cached)
}

func TestTitleGetByID_NotFound(t *testing.T) {
	mockTitleRepo := new(MockTitleRepository)
	titleService := NewTitleService(mockTitleRepo, nil, nil, newFakeRatingCache())

	mockTitleRepo.On("GetByID", mock.Anything, int64(404)).
		Return(nil, gorm.ErrRecordNotFound)

	resp, err := titleService.GetByID(context.Background(), 404)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, resp)
}

func TestTitleDelete_InvalidatesRating(t *testing.T) {
	mockTitleRepo := new(MockTitleRepository)
	ratings := newFakeRatingCache()
	ratings.Set(context.Background(), 7, intPtr(8))
	titleService := NewTitleService(mockTitleRepo, nil, nil, ratings)

	title := testTitle(7)
	mockTitleRepo.On("GetByID", mock.Anything, int64(7)).Return(title, nil)
	mockTitleRepo.On("Delete", mock.Anything, title).Return(nil)

	err := titleService.Delete(context.Background(), 7)

	assert.NoError(t, err)
	assert.Equal(t, []int64{7}, ratings.invalidated)
	_, ok := ratings.Get(context.Background(), 7)
	assert.False(t, ok)
}
