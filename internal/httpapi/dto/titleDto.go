package dto

import "reviewhub/internal/httpapi/models"

// CreateTitleRequest references category and genres by slug.
type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required"`
	Description *string  `json:"description" binding:"omitempty,max=200"`
	Category    string   `json:"category" binding:"required,max=50"`
	Genre       []string `json:"genre"`
}

// UpdateTitleRequest: partial update, nil pointers leave fields untouched.
type UpdateTitleRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description" binding:"omitempty,max=200"`
	Category    *string   `json:"category" binding:"omitempty,max=50"`
	Genre       *[]string `json:"genre"`
}

type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *int              `json:"rating"`
	Description *string           `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

// FromModelToTitleResponse converts a Title model to TitleResponse DTO. The
// rating is whatever the service annotated on the model (nil = no reviews).
func FromModelToTitleResponse(t *models.Title) *TitleResponse {
	genres := make([]GenreResponse, 0, len(t.Genres))
	for i := range t.Genres {
		genres = append(genres, *FromModelToGenreResponse(&t.Genres[i]))
	}

	var category *CategoryResponse
	if t.Category != nil {
		category = FromModelToCategoryResponse(t.Category)
	}

	return &TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}
