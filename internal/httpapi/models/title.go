package models

type Title struct {
	ID          int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string  `json:"name" gorm:"size:256;not null"`
	Year        int     `json:"year" gorm:"not null"`
	Description *string `json:"description,omitempty" gorm:"size:200"`
	CategoryID  *int64  `json:"-" gorm:"index"`

	// Rating is the rounded mean of review scores. Computed per request, never
	// stored; nil when the title has no reviews.
	Rating *int `json:"rating,omitempty" gorm:"-"`

	// Associations. Deleting a category keeps its titles (reference nulled),
	// deleting a title removes its reviews.
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`
	Genres   []Genre   `json:"genre,omitempty" gorm:"many2many:title_genres;constraint:OnDelete:CASCADE;"`
}

func (Title) TableName() string {
	return "titles"
}
