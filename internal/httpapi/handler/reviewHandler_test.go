package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"reviewhub/internal/httpapi/dto"
	"reviewhub/internal/httpapi/models"
	"reviewhub/internal/httpapi/service"
)

// MockReviewService mocks the ReviewService interface
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedResponse[dto.ReviewResponse], error) {
	args := m.Called(ctx, titleID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.ReviewResponse]), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, author *models.User, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, author, titleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	args := m.Called(ctx, titleID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, review *models.Review, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, review, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

// asUser injects the caller the way the auth middleware does.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set("currentUser", user)
		}
		c.Next()
	}
}

func reviewRouter(mockService *MockReviewService, user *models.User) *gin.Engine {
	router := setupRouter()
	handler := NewReviewHandler(mockService)
	reviews := router.Group("/titles/:title_id/reviews", asUser(user))
	{
		reviews.GET("", handler.List)
		reviews.POST("", handler.Create)
		reviews.GET("/:review_id", handler.Get)
		reviews.PATCH("/:review_id", handler.Update)
		reviews.DELETE("/:review_id", handler.Delete)
	}
	return router
}

func TestReviewCreate_AnonymousForbidden(t *testing.T) {
	mockService := new(MockReviewService)
	router := reviewRouter(mockService, nil)

	w := postJSON(router, "/titles/7/reviews", dto.CreateReviewRequest{Text: "nope", Score: 5})

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewCreate_AuthenticatedCreates(t *testing.T) {
	mockService := new(MockReviewService)
	author := &models.User{ID: "author-id", Username: "reviewer", Role: models.RoleUser}
	router := reviewRouter(mockService, author)

	reqBody := dto.CreateReviewRequest{Text: "great", Score: 9}
	resp := &dto.ReviewResponse{ID: 1, Text: "great", Author: "reviewer", Score: 9}
	mockService.On("Create", mock.Anything, author, int64(7), reqBody).Return(resp, nil)

	w := postJSON(router, "/titles/7/reviews", reqBody)

	assert.Equal(t, http.StatusCreated, w.Code)

	var got dto.ReviewResponse
	json.Unmarshal(w.Body.Bytes(), &got)
	assert.Equal(t, "reviewer", got.Author)
	mockService.AssertExpectations(t)
}

func TestReviewCreate_Duplicate(t *testing.T) {
	mockService := new(MockReviewService)
	author := &models.User{ID: "author-id", Username: "reviewer", Role: models.RoleUser}
	router := reviewRouter(mockService, author)

	reqBody := dto.CreateReviewRequest{Text: "again", Score: 8}
	mockService.On("Create", mock.Anything, author, int64(7), reqBody).
		Return(nil, service.ErrDuplicateReview)

	w := postJSON(router, "/titles/7/reviews", reqBody)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReviewUpdate_StrangerForbidden(t *testing.T) {
	mockService := new(MockReviewService)
	stranger := &models.User{ID: "stranger-id", Username: "stranger", Role: models.RoleUser}
	router := reviewRouter(mockService, stranger)

	review := &models.Review{ID: 3, TitleID: 7, AuthorID: "author-id"}
	mockService.On("GetByID", mock.Anything, int64(7), int64(3)).Return(review, nil)

	body, _ := json.Marshal(dto.UpdateReviewRequest{Text: strPtr("hijacked")})
	req, _ := http.NewRequest("PATCH", "/titles/7/reviews/3", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewUpdate_ModeratorAllowed(t *testing.T) {
	mockService := new(MockReviewService)
	moderator := &models.User{ID: "mod-id", Username: "mod", Role: models.RoleModerator}
	router := reviewRouter(mockService, moderator)

	review := &models.Review{ID: 3, TitleID: 7, AuthorID: "author-id"}
	reqBody := dto.UpdateReviewRequest{Text: strPtr("cleaned up")}
	resp := &dto.ReviewResponse{ID: 3, Text: "cleaned up", Author: "reviewer", Score: 5}
	mockService.On("GetByID", mock.Anything, int64(7), int64(3)).Return(review, nil)
	mockService.On("Update", mock.Anything, review, reqBody).Return(resp, nil)

	body, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest("PATCH", "/titles/7/reviews/3", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestReviewDelete_AuthorAllowed(t *testing.T) {
	mockService := new(MockReviewService)
	author := &models.User{ID: "author-id", Username: "reviewer", Role: models.RoleUser}
	router := reviewRouter(mockService, author)

	review := &models.Review{ID: 3, TitleID: 7, AuthorID: "author-id"}
	mockService.On("GetByID", mock.Anything, int64(7), int64(3)).Return(review, nil)
	mockService.On("Delete", mock.Anything, review).Return(nil)

	req, _ := http.NewRequest("DELETE", "/titles/7/reviews/3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestReviewGet_MalformedID(t *testing.T) {
	mockService := new(MockReviewService)
	router := reviewRouter(mockService, nil)

	req, _ := http.NewRequest("GET", "/titles/7/reviews/notanumber", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}
