package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reviewhub/internal/httpapi/dto"
	"reviewhub/internal/httpapi/models"
	"reviewhub/internal/httpapi/repository"
	"reviewhub/internal/httpapi/validation"
)

type ReviewService interface {
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedResponse[dto.ReviewResponse], error)
	Create(ctx context.Context, author *models.User, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	// GetByID returns the model so handlers can run the object-level
	// permission check against the concrete author before mutating.
	GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	Update(ctx context.Context, review *models.Review, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, review *models.Review) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
	ratings    repository.RatingCache
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	titleRepo repository.TitleRepository,
	ratings repository.RatingCache,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		ratings:    ratings,
	}
}

func (s *reviewService) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedResponse[dto.ReviewResponse], error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	reviews, total, err := s.reviewRepo.ListByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, *dto.FromModelToReviewResponse(&reviews[i]))
	}
	return dto.NewPaginatedResponse(responses, int(total), page, pageSize), nil
}

// Create enforces one review per (title, author). The check is create-only:
// updates go through Update and never see it.
func (s *reviewService) Create(ctx context.Context, author *models.User, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if err := validation.Score(req.Score); err != nil {
		return nil, err
	}
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	if _, err := s.reviewRepo.FindByTitleAndAuthor(ctx, titleID, author.ID); err == nil {
		return nil, ErrDuplicateReview
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: author.ID,
		Text:     req.Text,
		Score:    req.Score,
		Author:   *author,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			// Two concurrent creates for the same pair: the constraint is
			// the backstop and the loser gets the same conflict answer.
			return nil, ErrDuplicateReview
		}
		return nil, err
	}

	s.ratings.Invalidate(ctx, titleID)
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if err := s.ensureTitle(ctx, titleID); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, review *models.Review, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		if err := validation.Score(*req.Score); err != nil {
			return nil, err
		}
		review.Score = *req.Score
	}

	if err := s.reviewRepo.Save(ctx, review); err != nil {
		return nil, err
	}

	s.ratings.Invalidate(ctx, review.TitleID)
	return dto.FromModelToReviewResponse(review), nil
}

func (s *reviewService) Delete(ctx context.Context, review *models.Review) error {
	if err := s.reviewRepo.Delete(ctx, review); err != nil {
		return err
	}
	s.ratings.Invalidate(ctx, review.TitleID)
	return nil
}

func (s *reviewService) ensureTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
