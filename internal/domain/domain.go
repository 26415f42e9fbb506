package domain

import "errors"

var (
	ErrAdNotFound  = errors.New("ad not found")
	ErrValidation  = errors.New("ad validation failed")
	ErrInvalidPage = errors.New("page out of range")

	// ErrPersist wraps a failed write of the collection to the store. The in-memory change stays applied.
	ErrPersist = errors.New("failed to persist ads")
)

type Ad struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
}

// AdInput is the normalized payload an editor emits on confirm.
type AdInput struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageURL    string  `json:"imageUrl" validate:"required"`
}

// AdPatch carries the fields to merge into an existing ad. Nil fields are left untouched.
type AdPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
}

func (in AdInput) Patch() AdPatch {
	return AdPatch{
		Title:       &in.Title,
		Description: &in.Description,
		Price:       &in.Price,
		ImageURL:    &in.ImageURL,
	}
}

func (a Ad) Apply(p AdPatch) Ad {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Price != nil {
		a.Price = *p.Price
	}
	if p.ImageURL != nil {
		a.ImageURL = *p.ImageURL
	}
	return a
}

type BoardView struct {
	Ads        []Ad   `json:"ads"`
	Query      string `json:"query"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	Filtered   int    `json:"filtered"`
	Total      int    `json:"total"`
}
