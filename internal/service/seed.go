package service

import (
	"adboard/internal/domain"

	"github.com/google/uuid"
)

// seedAds is the demo collection used when nothing usable is stored. IDs are fresh on every call.
func seedAds() []domain.Ad {
	return []domain.Ad{
		{
			ID:          uuid.NewString(),
			Title:       "CRT монитор Samsung",
			Description: "Коллекционный, рабочий. Самовывоз.",
			Price:       15000,
			ImageURL:    "https://images.unsplash.com/photo-1525547719571-a2d4ac8945e2?q=80&w=1200&auto=format&fit=crop",
		},
		{
			ID:          uuid.NewString(),
			Title:       "Игровая консоль",
			Description: "Состояние отличное, 2 геймпада.",
			Price:       120000,
			ImageURL:    "https://images.unsplash.com/photo-1606813907291-76e4d0ef9b38?q=80&w=1200&auto=format&fit=crop",
		},
		{
			ID:          uuid.NewString(),
			Title:       "Колонки 2.1",
			Description: "Громкие, без искажений.",
			Price:       25000,
			ImageURL:    "https://images.unsplash.com/photo-1518441257438-6f7f09a6f01a?q=80&w=1200&auto=format&fit=crop",
		},
	}
}
