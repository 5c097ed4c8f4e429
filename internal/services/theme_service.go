package services

import (
	"context"
	"sync"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/observability"
)

// ThemeStore persists the theme preference
type ThemeStore interface {
	LoadTheme(ctx context.Context) models.Theme
	SaveTheme(ctx context.Context, theme models.Theme) error
}

// ThemeService holds the light/dark preference, cached in memory after the first read
type ThemeService struct {
	repo ThemeStore

	mu     sync.Mutex
	theme  models.Theme
	loaded bool
}

// NewThemeService creates a new theme service
func NewThemeService(repo ThemeStore) *ThemeService {
	return &ThemeService{repo: repo}
}

// Current returns the active theme, reading storage on first use
func (s *ThemeService) Current(ctx context.Context) models.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(ctx)
}

func (s *ThemeService) currentLocked(ctx context.Context) models.Theme {
	if !s.loaded {
		s.theme = s.repo.LoadTheme(ctx)
		s.loaded = true
	}
	return s.theme
}

// Set changes and persists the theme
func (s *ThemeService) Set(ctx context.Context, theme models.Theme) models.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	s.loaded = true
	s.persistLocked(ctx)
	return theme
}

// Toggle flips between light and dark
func (s *ThemeService) Toggle(ctx context.Context) models.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = s.currentLocked(ctx).Toggle()
	s.persistLocked(ctx)
	return s.theme
}

func (s *ThemeService) persistLocked(ctx context.Context) {
	if err := s.repo.SaveTheme(ctx, s.theme); err != nil {
		observability.WithContext(ctx).WithError(err).Warn("Persisting theme failed")
	}
}
