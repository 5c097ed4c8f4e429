package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/observability"
)

// Logical keys of the persisted gallery state
const (
	KeyAuth      = "auth"
	KeyArtworks  = "artworks"
	KeyFavorites = "favorites"
	KeyTheme     = "theme"
)

// DefaultKeyPrefix namespaces the logical keys in a shared backend
const DefaultKeyPrefix = "art_gallery_"

// GalleryStateRepository gives typed JSON access to the persisted gallery keys.
// Reads never fail: a missing key, a backend error or malformed JSON all read as absent.
// Writes return their error so the caller decides whether to absorb it.
type GalleryStateRepository struct {
	store  KeyValueStore
	prefix string
}

// NewGalleryStateRepository creates a repository over store. An empty prefix uses DefaultKeyPrefix.
func NewGalleryStateRepository(store KeyValueStore, prefix string) *GalleryStateRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &GalleryStateRepository{store: store, prefix: prefix}
}

// Key returns the physical key of a logical key
func (r *GalleryStateRepository) Key(name string) string {
	return r.prefix + name
}

func (r *GalleryStateRepository) load(ctx context.Context, name string, dst any) bool {
	key := r.Key(name)
	logger := observability.WithContext(ctx).WithField("key", key)

	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		logger.WithError(err).Warn("Reading persisted state failed, treating as absent")
		return false
	}
	if !found || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.WithError(err).Warn("Persisted state is malformed, treating as absent")
		return false
	}
	return true
}

func (r *GalleryStateRepository) save(ctx context.Context, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := r.store.Set(ctx, r.Key(name), data); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

// LoadArtworks returns the persisted collection, or nil when absent
func (r *GalleryStateRepository) LoadArtworks(ctx context.Context) []models.Artwork {
	var artworks []models.Artwork
	if !r.load(ctx, KeyArtworks, &artworks) {
		return nil
	}
	return artworks
}

// SaveArtworks persists the whole collection
func (r *GalleryStateRepository) SaveArtworks(ctx context.Context, artworks []models.Artwork) error {
	if artworks == nil {
		artworks = []models.Artwork{}
	}
	return r.save(ctx, KeyArtworks, artworks)
}

// LoadFavorites returns the persisted favorite ids, or an empty list when absent
func (r *GalleryStateRepository) LoadFavorites(ctx context.Context) []string {
	var favorites []string
	if !r.load(ctx, KeyFavorites, &favorites) || favorites == nil {
		return []string{}
	}
	return favorites
}

// SaveFavorites persists the favorite ids
func (r *GalleryStateRepository) SaveFavorites(ctx context.Context, favorites []string) error {
	if favorites == nil {
		favorites = []string{}
	}
	return r.save(ctx, KeyFavorites, favorites)
}

// LoadAuth returns the persisted session, or a signed-out state when absent.
// A stored state that claims to be authenticated without a user is treated as signed out.
func (r *GalleryStateRepository) LoadAuth(ctx context.Context) models.AuthState {
	var state models.AuthState
	if !r.load(ctx, KeyAuth, &state) || state.User == nil {
		return models.AuthState{}
	}
	return state
}

// SaveAuth persists the session
func (r *GalleryStateRepository) SaveAuth(ctx context.Context, state models.AuthState) error {
	return r.save(ctx, KeyAuth, state)
}

// ClearAuth removes the persisted session
func (r *GalleryStateRepository) ClearAuth(ctx context.Context) error {
	return r.Clear(ctx, KeyAuth)
}

// LoadTheme returns the persisted theme, or DefaultTheme when absent or unknown
func (r *GalleryStateRepository) LoadTheme(ctx context.Context) models.Theme {
	var raw string
	if !r.load(ctx, KeyTheme, &raw) {
		return models.DefaultTheme
	}
	theme, err := models.ParseTheme(raw)
	if err != nil {
		observability.WithContext(ctx).Warnf("Persisted theme %q is unknown, using %s", raw, models.DefaultTheme)
		return models.DefaultTheme
	}
	return theme
}

// SaveTheme persists the theme
func (r *GalleryStateRepository) SaveTheme(ctx context.Context, theme models.Theme) error {
	return r.save(ctx, KeyTheme, string(theme))
}

// Clear removes a logical key
func (r *GalleryStateRepository) Clear(ctx context.Context, name string) error {
	return r.store.Delete(ctx, r.Key(name))
}
