package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"reviewhub/internal/httpapi/dto"
	"reviewhub/internal/httpapi/models"
	"reviewhub/internal/httpapi/repository"
	"reviewhub/internal/httpapi/validation"
)

// MockTitleRepository mocks the TitleRepository interface
type MockTitleRepository struct {
	mock.Mock
}

func (m *MockTitleRepository) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Title), args.Get(1).(int64), args.Error(2)
}

func (m *MockTitleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleRepository) Create(ctx context.Context, title *models.Title) error {
	args := m.Called(ctx, title)
	return args.Error(0)
}

func (m *MockTitleRepository) Update(ctx context.Context, title *models.Title) error {
	args := m.Called(ctx, title)
	return args.Error(0)
}

func (m *MockTitleRepository) ReplaceGenres(ctx context.Context, title *models.Title, genres []models.Genre) error {
	args := m.Called(ctx, title, genres)
	return args.Error(0)
}

func (m *MockTitleRepository) Delete(ctx context.Context, title *models.Title) error {
	args := m.Called(ctx, title)
	return args.Error(0)
}

func (m *MockTitleRepository) AverageScore(ctx context.Context, titleID int64) (*int, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

// MockReviewRepository mocks the ReviewRepository interface
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	args := m.Called(ctx, titleID, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	args := m.Called(ctx, titleID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) FindByID(ctx context.Context, reviewID int64) (*models.Review, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) FindByTitleAndAuthor(ctx context.Context, titleID int64, authorID string) (*models.Review, error) {
	args := m.Called(ctx, titleID, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Save(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

// fakeRatingCache records the calls the service makes against the cache.
type fakeRatingCache struct {
	values      map[int64]*int
	invalidated []int64
}

func newFakeRatingCache() *fakeRatingCache {
	return &fakeRatingCache{values: make(map[int64]*int)}
}

func (f *fakeRatingCache) Get(_ context.Context, titleID int64) (*int, bool) {
	v, ok := f.values[titleID]
	return v, ok
}

func (f *fakeRatingCache) Set(_ context.Context, titleID int64, rating *int) {
	f.values[titleID] = rating
}

func (f *fakeRatingCache) Invalidate(_ context.Context, titleID int64) {
	delete(f.values, titleID)
	f.invalidated = append(f.invalidated, titleID)
}

func intPtr(i int) *int { return &i }

func TestReviewCreate_Success(t *testing.T) {
	mockReviewRepo := new(MockReviewRepository)
	mockTitleRepo := new(MockTitleRepository)
	ratings := newFakeRatingCache()
	reviewService := NewReviewService(mockReviewRepo, mockTitleRepo, ratings)

	author := &models.User{ID: "author-id", Username: "reviewer"}
	title := &models.Title{ID: 7, Name: "Some Title", Year: 2001}
	mockTitleRepo.On("GetByID", mock.Anything, int64(7)).Return(title, nil)
	mockReviewRepo.On("FindByTitleAndAuthor", mock.Anything, int64(7), "author-id").
		Return(nil, gorm.ErrRecordNotFound)
	mockReviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).Return(nil)

	resp, err := reviewService.Create(context.Background(), author, 7, dto.CreateReviewRequest{
		Text:  "great",
		Score: 9,
	})

	assert.NoError(t, err)
	assert.Equal(t, 9, resp.Score)
	assert.Equal(t, "reviewer", resp.Author)
	assert.Equal(t, []int64{7}, ratings.invalidated)
	mockReviewRepo.AssertExpectations(t)
}

func TestReviewCreate_SecondReviewRejected(t *testing.T) {
	mockReviewRepo := new(MockReviewRepository)
	mockTitleRepo := new(MockTitleRepository)
	reviewService := NewReviewService(mockReviewRepo, mockTitleRepo, newFakeRatingCache())

	author := &models.User{ID: "author-id", Username: "reviewer"}
	title := &models.Title{ID: 7}
	existing := &models.Review{ID: 3, TitleID: 7, AuthorID: "author-id", Score: 5}
	mockTitleRepo.On("GetByID", mock.Anything, int64(7)).Return(title, nil)
	mockReviewRepo.On("FindByTitleAndAuthor", mock.Anything, int64(7), "author-id").
		Return(existing, nil)

	resp, err := reviewService.Create(context.Background(), author, 7, dto.CreateReviewRequest{
		Text:  "again",
		Score: 8,
	})

	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.Nil(t, resp)
	mockReviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewCreate_ConstraintRaceRejected(t *testing.T) {
	mockReviewRepo := new(MockReviewRepository)
	mockTitleRepo := new(MockTitleRepository)
	reviewService := NewReviewService(mockReviewRepo, mockTitleRepo, newFakeRatingCache())

	author := &models.User{ID: "author-id", Username: "reviewer"}
	title := &models.Title{ID: 7}
	mockTitleRepo.On("GetByID", mock.Anything, int64(7)).Return(title, nil)
	mockReviewRepo.On("FindByTitleAndAuthor", mock.Anything, int64(7), "author-id").
		Return(nil, gorm.ErrRecordNotFound)
	mockReviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).
		Return(&pgconn.PgError{Code: "23505"})

	resp, err := reviewService.Create(context.Background(), author, 7, dto.CreateReviewRequest{
		Text:  "race",
		Score: 6,
	})

	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.Nil(t, resp)
}

func TestReviewCreate_ScoreOutOfRange(t *testing.T) {
	mockReviewRepo := new(MockReviewRepository)
	mockTitleRepo := new(MockTitleRepository)
	reviewService := NewReviewService(mockReviewRepo, mockTitleRepo, newFakeRatingCache())

	author := &models.User{ID: "author-id"}
	resp, err := reviewService.Create(context.Background(), author, 7, dto.CreateReviewRequest{
		Text:  "off the chart",
		Score: 11,
	})

	var fieldErr *validation.FieldError
	assert.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "score", fieldErr.Field)
	assert.Nil(t, resp)
	mockTitleRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestReviewCreate_UnknownTitle(t *testing.T) {
	mockReviewRepo := new(MockReviewRepository)
	mockTitleRepo := new(MockTitleRepository)
	reviewService := NewReviewService(mockReviewRepo, mockTitleRepo, newFakeRatingCache())

	mockTitleRepo.On("GetByID", mock.Anything, int64(404)).
		Return(nil, gorm.ErrRecordNotFound)

	author := &models.User{ID: "author-id"}
	resp, err := reviewService.Create(context.Background(), author, 404, dto.CreateReviewRequest{
		Text:  "nothing here",
		Score: 5,
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, resp)
}

func TestReviewUpdate_AuthorCanRescore(t *testing.T) {
	mockReviewRepo := new(MockReviewRepository)
	mockTitleRepo := new(MockTitleRepository)
	ratings := newFakeRatingCache()
	reviewService := NewReviewService(mockReviewRepo, mockTitleRepo, ratings)

	review := &models.Review{ID: 3, TitleID: 7, AuthorID: "author-id", Text: "ok", Score: 5,
		Author: models.User{ID: "author-id", Username: "reviewer"}}
	mockReviewRepo.On("Save", mock.Anything, review).Return(nil)

	// The one-review rule binds creation only; an author re-scoring their own
	// review must not trip it.
	resp, err := reviewService.Update(context.Background(), review, dto.UpdateReviewRequest{
		Score: intPtr(10),
	})

	assert.NoError(t, err)
	assert.Equal(t, 10, resp.Score)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, []int64{7}, ratings.invalidated)
	mockReviewRepo.AssertNotCalled(t, "FindByTitleAndAuthor", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewDelete_InvalidatesRating(t *testing.T) {
	mockReviewRepo := new(MockReviewRepository)
	mockTitleRepo := new(MockTitleRepository)
	ratings := newFakeRatingCache()
	reviewService := NewReviewService(mockReviewRepo, mockTitleRepo, ratings)

	review := &models.Review{ID: 3, TitleID: 7, AuthorID: "author-id"}
	mockReviewRepo.On("Delete", mock.Anything, review).Return(nil)

	err := reviewService.Delete(context.Background(), review)

	assert.NoError(t, err)
	assert.Equal(t, []int64{7}, ratings.invalidated)
}
