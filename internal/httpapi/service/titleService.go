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

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedResponse[dto.TitleResponse], error)
	GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo *repository.CategoryRepo
	genreRepo    *repository.GenreRepo
	ratings      repository.RatingCache
}

func NewTitleService(
	titleRepo repository.TitleRepository,
	categoryRepo *repository.CategoryRepo,
	genreRepo *repository.GenreRepo,
	ratings repository.RatingCache,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		ratings:      ratings,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) (*dto.PaginatedResponse[dto.TitleResponse], error) {
	titles, total, err := s.titleRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TitleResponse, 0, len(titles))
	for i := range titles {
		if err := s.annotateRating(ctx, &titles[i]); err != nil {
			return nil, err
		}
		responses = append(responses, *dto.FromModelToTitleResponse(&titles[i]))
	}
	return dto.NewPaginatedResponse(responses, int(total), page, pageSize), nil
}

func (s *titleService) GetByID(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.annotateRating(ctx, title); err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(title), nil
}

// annotateRating fills in the computed rating, read-through the cache.
func (s *titleService) annotateRating(ctx context.Context, title *models.Title) error {
	if rating, ok := s.ratings.Get(ctx, title.ID); ok {
		title.Rating = rating
		return nil
	}

	rating, err := s.titleRepo.AverageScore(ctx, title.ID)
	if err != nil {
		return err
	}
	s.ratings.Set(ctx, title.ID, rating)
	title.Rating = rating
	return nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	if err := validation.Year(req.Year); err != nil {
		return nil, err
	}

	category, genres, err := s.resolveRelations(ctx, req.Category, req.Genre)
	if err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		CategoryID:  &category.ID,
		Category:    category,
		Genres:      genres,
	}
	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(title), nil
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		if err := validation.Year(*req.Year); err != nil {
			return nil, err
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = req.Description
	}
	if req.Category != nil {
		category, err := s.categoryRepo.FindBySlug(ctx, *req.Category)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &validation.FieldError{Field: "category", Message: "unknown category slug"}
			}
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}

	if req.Genre != nil {
		genres, err := s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		if err := s.titleRepo.ReplaceGenres(ctx, title, genres); err != nil {
			return nil, err
		}
		title.Genres = genres
	}

	if err := s.annotateRating(ctx, title); err != nil {
		return nil, err
	}
	return dto.FromModelToTitleResponse(title), nil
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.titleRepo.Delete(ctx, title); err != nil {
		return err
	}
	s.ratings.Invalidate(ctx, id)
	return nil
}

func (s *titleService) resolveRelations(ctx context.Context, categorySlug string, genreSlugs []string) (*models.Category, []models.Genre, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, categorySlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &validation.FieldError{Field: "category", Message: "unknown category slug"}
		}
		return nil, nil, err
	}

	genres, err := s.resolveGenres(ctx, genreSlugs)
	if err != nil {
		return nil, nil, err
	}
	return category, genres, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	genres, err := s.genreRepo.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(slugs) {
		return nil, &validation.FieldError{Field: "genre", Message: "unknown genre slug"}
	}
	return genres, nil
}
