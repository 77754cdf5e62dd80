package service

import (
	"context"
	"strings"

	"piscineiro/internal/domain"
	"piscineiro/internal/models"

	"github.com/rs/zerolog"
)

// ProviderService covers the read side of the marketplace: search, profiles
// and favorites.
type ProviderService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewProviderService(repo domain.Repository, logger *zerolog.Logger) *ProviderService {
	return &ProviderService{
		repo:   repo,
		logger: logger,
	}
}

func (s *ProviderService) SearchByCity(ctx context.Context, city string) ([]*models.Provider, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return s.repo.ListProviders(ctx)
	}
	return s.repo.SearchProvidersByCity(ctx, city)
}

func (s *ProviderService) Get(ctx context.Context, id string) (*models.Provider, error) {
	return s.repo.GetProvider(ctx, id)
}

func (s *ProviderService) AddFavorite(ctx context.Context, clientID, providerID string) error {
	// Fail on unknown providers instead of storing a dangling reference
	if _, err := s.repo.GetProvider(ctx, providerID); err != nil {
		return err
	}
	return s.repo.AddFavorite(ctx, clientID, providerID)
}

func (s *ProviderService) RemoveFavorite(ctx context.Context, clientID, providerID string) error {
	return s.repo.RemoveFavorite(ctx, clientID, providerID)
}

func (s *ProviderService) Favorites(ctx context.Context, clientID string) ([]*models.Provider, error) {
	return s.repo.ListFavorites(ctx, clientID)
}
