package service

import (
	"strings"

	"adboard/internal/domain"
)

// FilterAds keeps the ads whose lower-cased title contains the trimmed, lower-cased query.
// Order is preserved. A blank query keeps everything.
func FilterAds(ads []domain.Ad, query string) []domain.Ad {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ads
	}

	filtered := make([]domain.Ad, 0, len(ads))
	for _, ad := range ads {
		if strings.Contains(strings.ToLower(ad.Title), q) {
			filtered = append(filtered, ad)
		}
	}
	return filtered
}

// TotalPages is never less than 1, even for an empty view.
func TotalPages(count, pageSize int) int {
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// PageSlice returns a copy of the 1-based page. Pages past the end are empty.
func PageSlice(ads []domain.Ad, page, pageSize int) []domain.Ad {
	start := (page - 1) * pageSize
	if start < 0 || start >= len(ads) {
		return []domain.Ad{}
	}
	end := start + pageSize
	if end > len(ads) {
		end = len(ads)
	}

	out := make([]domain.Ad, end-start)
	copy(out, ads[start:end])
	return out
}
