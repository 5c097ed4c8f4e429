package services

import (
	"context"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/observability"
)

// GalleryEventType names a store mutation
type GalleryEventType string

const (
	EventFavoritesChanged GalleryEventType = "favorites_changed"
	EventArtworkSubmitted GalleryEventType = "artwork_submitted"
	EventArtworkRemoved   GalleryEventType = "artwork_removed"
	EventFetchCompleted   GalleryEventType = "fetch_completed"
	EventFetchFailed      GalleryEventType = "fetch_failed"
	EventGalleryReset     GalleryEventType = "gallery_reset"
)

// GalleryEvent describes a committed store mutation. Only the fields relevant to
// Type are set, and none of them alias store state.
type GalleryEvent struct {
	Type      GalleryEventType `json:"type"`
	Favorites []string         `json:"favorites,omitempty"`
	Artwork   *models.Artwork  `json:"artwork,omitempty"`
	ArtworkID string           `json:"artworkId,omitempty"`
	Merged    int              `json:"merged,omitempty"`
	Total     int              `json:"total"`
	Cursor    int              `json:"cursor,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// GalleryObserver receives store events in the order the mutations were committed.
// Delivery is serialized, so a slow observer holds back later mutations.
type GalleryObserver interface {
	OnGalleryEvent(ctx context.Context, event GalleryEvent)
}

// GalleryObserverFunc adapts a function to GalleryObserver
type GalleryObserverFunc func(ctx context.Context, event GalleryEvent)

func (f GalleryObserverFunc) OnGalleryEvent(ctx context.Context, event GalleryEvent) {
	f(ctx, event)
}

// NewLoggingObserver logs every event at debug level, and failed fetches at warn
func NewLoggingObserver() GalleryObserver {
	return GalleryObserverFunc(func(ctx context.Context, event GalleryEvent) {
		logger := observability.WithContext(ctx).WithFields(map[string]any{
			"event": string(event.Type),
			"total": event.Total,
		})
		switch event.Type {
		case EventFetchFailed:
			logger.WithField("cursor", event.Cursor).Warnf("Catalog fetch failed: %s", event.Error)
		case EventFetchCompleted:
			logger.Debugf("Merged %d artworks, next page %d", event.Merged, event.Cursor)
		default:
			logger.Debug("Gallery changed")
		}
	})
}
