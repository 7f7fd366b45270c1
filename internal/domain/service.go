package domain

import "time"

// Service represents a bookable service offered by a business.
type Service struct {
	ID              string     `json:"id"`
	BusinessID      string     `json:"business_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	Price           float64    `json:"price"`
	Currency        string     `json:"currency"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
}

// IsArchived returns true if the service is archived.
func (s *Service) IsArchived() bool {
	return s.ArchivedAt != nil
}
