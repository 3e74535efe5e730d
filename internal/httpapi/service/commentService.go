package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"reviewhub/internal/httpapi/dto"
	"reviewhub/internal/httpapi/models"
	"reviewhub/internal/httpapi/repository"
)

type CommentService interface {
	ListByReview(ctx context.Context, reviewID int64, page, pageSize int) (*dto.PaginatedResponse[dto.CommentResponse], error)
	Create(ctx context.Context, author *models.User, reviewID int64, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	// GetByID returns the model so handlers can run the object-level
	// permission check against the concrete author before mutating.
	GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment, req dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	Delete(ctx context.Context, comment *models.Comment) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
}

func NewCommentService(commentRepo repository.CommentRepository, reviewRepo repository.ReviewRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
	}
}

func (s *commentService) ListByReview(ctx context.Context, reviewID int64, page, pageSize int) (*dto.PaginatedResponse[dto.CommentResponse], error) {
	if err := s.ensureReview(ctx, reviewID); err != nil {
		return nil, err
	}

	comments, total, err := s.commentRepo.ListByReview(ctx, reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, *dto.FromModelToCommentResponse(&comments[i]))
	}
	return dto.NewPaginatedResponse(responses, int(total), page, pageSize), nil
}

func (s *commentService) Create(ctx context.Context, author *models.User, reviewID int64, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if err := s.ensureReview(ctx, reviewID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: author.ID,
		Text:     req.Text,
		Author:   *author,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.ensureReview(ctx, reviewID); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, reviewID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return comment, nil
}

func (s *commentService) Update(ctx context.Context, comment *models.Comment, req dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	if req.Text != nil {
		comment.Text = *req.Text
	}
	if err := s.commentRepo.Save(ctx, comment); err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) Delete(ctx context.Context, comment *models.Comment) error {
	return s.commentRepo.Delete(ctx, comment)
}

func (s *commentService) ensureReview(ctx context.Context, reviewID int64) error {
	if _, err := s.reviewRepo.FindByID(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
