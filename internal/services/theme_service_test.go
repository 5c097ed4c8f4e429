package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/repository"
)

type brokenThemeStore struct{ loads int }

func (b *brokenThemeStore) LoadTheme(context.Context) models.Theme {
	b.loads++
	return models.ThemeDark
}

func (b *brokenThemeStore) SaveTheme(context.Context, models.Theme) error {
	return errors.New("read-only")
}

func TestThemeService(t *testing.T) {
	t.Run("defaults to light and persists toggles", func(t *testing.T) {
		repo := repository.NewGalleryStateRepository(repository.NewMemoryStore(), "")
		svc := NewThemeService(repo)

		assert.Equal(t, models.ThemeLight, svc.Current(t.Context()))
		assert.Equal(t, models.ThemeDark, svc.Toggle(t.Context()))
		assert.Equal(t, models.ThemeDark, repo.LoadTheme(t.Context()))

		assert.Equal(t, models.ThemeLight, svc.Set(t.Context(), models.ThemeLight))
		assert.Equal(t, models.ThemeLight, NewThemeService(repo).Current(t.Context()))
	})

	t.Run("reads storage once and survives write failures", func(t *testing.T) {
		store := &brokenThemeStore{}
		svc := NewThemeService(store)

		assert.Equal(t, models.ThemeDark, svc.Current(t.Context()))
		assert.Equal(t, models.ThemeLight, svc.Toggle(t.Context()))
		assert.Equal(t, models.ThemeLight, svc.Current(t.Context()))
		assert.Equal(t, 1, store.loads)
	})
}
