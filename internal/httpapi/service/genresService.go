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

type GenreService struct {
	genreRepo *repository.GenreRepo
}

func NewGenreService(genreRepo *repository.GenreRepo) *GenreService {
	return &GenreService{genreRepo: genreRepo}
}

func (s *GenreService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedResponse[dto.GenreResponse], error) {
	genres, total, err := s.genreRepo.GetAll(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GenreResponse, 0, len(genres))
	for i := range genres {
		responses = append(responses, *dto.FromModelToGenreResponse(&genres[i]))
	}
	return dto.NewPaginatedResponse(responses, int(total), page, pageSize), nil
}

func (s *GenreService) Create(ctx context.Context, req dto.CreateGenreRequest) (*dto.GenreResponse, error) {
	if err := validation.Slug(req.Slug); err != nil {
		return nil, err
	}

	if _, err := s.genreRepo.FindBySlug(ctx, req.Slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	genre := &models.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.genreRepo.Create(ctx, genre); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return dto.FromModelToGenreResponse(genre), nil
}

func (s *GenreService) Delete(ctx context.Context, slug string) error {
	if err := s.genreRepo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
