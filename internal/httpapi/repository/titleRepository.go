package repository

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"reviewhub/internal/httpapi/models"
)

// TitleFilter carries the optional list filters. Zero values mean "no filter".
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         int
}

type TitleRepository interface {
	List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, title *models.Title) error
	Update(ctx context.Context, title *models.Title) error
	ReplaceGenres(ctx context.Context, title *models.Title, genres []models.Genre) error
	Delete(ctx context.Context, title *models.Title) error
	AverageScore(ctx context.Context, titleID int64) (*int, error)
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	var titles []models.Title
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Title{})
	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	if filter.GenreSlug != "" {
		q = q.Joins("JOIN title_genres tg ON tg.title_id = titles.id").
			Joins("JOIN genres ON genres.id = tg.genre_id").
			Where("genres.slug = ?", filter.GenreSlug)
	}
	if filter.Name != "" {
		q = q.Where("titles.name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Year != 0 {
		q = q.Where("titles.year = ?", filter.Year)
	}

	if err := q.Distinct("titles.id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	offset := (page - 1) * pageSize
	err := q.Distinct().
		Preload("Category").
		Preload("Genres").
		Order("titles.name asc").
		Limit(pageSize).
		Offset(offset).
		Find(&titles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("get titles: %w", err)
	}
	return titles, total, nil
}

func (r *titleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var title models.Title
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres").
		First(&title, "titles.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &title, nil
}

func (r *titleRepository) Create(ctx context.Context, title *models.Title) error {
	return r.db.WithContext(ctx).Create(title).Error
}

func (r *titleRepository) Update(ctx context.Context, title *models.Title) error {
	// Select forces writes of zeroed fields (a nulled category in particular).
	return r.db.WithContext(ctx).Model(title).
		Select("Name", "Year", "Description", "CategoryID").
		Updates(title).Error
}

func (r *titleRepository) ReplaceGenres(ctx context.Context, title *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Model(title).Association("Genres").Replace(genres)
}

func (r *titleRepository) Delete(ctx context.Context, title *models.Title) error {
	return r.db.WithContext(ctx).Delete(title).Error
}

// AverageScore computes the rounded mean review score for a title. Returns
// nil when no reviews exist so callers can distinguish "no rating" from a
// real score.
func (r *titleRepository) AverageScore(ctx context.Context, titleID int64) (*int, error) {
	var avg *float64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(score)").
		Where("title_id = ?", titleID).
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("average score: %w", err)
	}
	if avg == nil {
		return nil, nil
	}
	rounded := int(math.Round(*avg))
	return &rounded, nil
}
