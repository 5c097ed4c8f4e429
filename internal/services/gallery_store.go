package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/observability"
	"github.com/artgallery/server/internal/repository"
)

// GalleryStateStore is the persistence the gallery store needs
type GalleryStateStore interface {
	LoadArtworks(ctx context.Context) []models.Artwork
	SaveArtworks(ctx context.Context, artworks []models.Artwork) error
	LoadFavorites(ctx context.Context) []string
	SaveFavorites(ctx context.Context, favorites []string) error
}

// GalleryStoreOptions tunes a GalleryStore. Zero values pick the defaults.
type GalleryStoreOptions struct {
	PageSize     int
	FetchTimeout time.Duration
	// IDGenerator returns ids for user submissions; they must start with models.UserIDPrefix
	IDGenerator func() string
	Metrics     *observability.GalleryMetrics
}

const (
	DefaultPageSize     = 10
	DefaultFetchTimeout = 30 * time.Second
)

// FetchResult summarises one fetch-more cycle
type FetchResult struct {
	Page     int `json:"page"`
	Received int `json:"received"`
	Merged   int `json:"merged"`
	Total    int `json:"total"`
	Cursor   int `json:"cursor"`
}

// GalleryStore owns the artwork collection, the favorite ids, the active filter and sort,
// and the pagination cursor. All state is guarded by mu and persistence writes happen
// under it. Events are delivered under notifyMu, which is taken before mu is released,
// so observers see mutations in commit order.
type GalleryStore struct {
	repo    GalleryStateStore
	fetcher CatalogFetcher
	opts    GalleryStoreOptions

	mu        sync.Mutex
	artworks  []models.Artwork
	ids       map[string]struct{}
	favorites []string
	filter    models.FilterConfig
	sort      models.SortKey
	view      []models.Artwork
	cursor    int
	status    models.FetchStatus
	lastError string
	currentID string

	notifyMu    sync.Mutex
	observersMu sync.RWMutex
	observers   []GalleryObserver
}

// NewGalleryStore creates an empty store; call Init or Load before serving
func NewGalleryStore(repo GalleryStateStore, fetcher CatalogFetcher, opts GalleryStoreOptions) *GalleryStore {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = func() string { return models.UserIDPrefix + uuid.NewString() }
	}
	return &GalleryStore{
		repo:      repo,
		fetcher:   fetcher,
		opts:      opts,
		artworks:  []models.Artwork{},
		ids:       make(map[string]struct{}),
		favorites: []string{},
		filter:    models.FilterConfig{Tags: []string{}},
		sort:      models.DefaultSort,
		view:      []models.Artwork{},
		cursor:    1,
		status:    models.StatusIdle,
	}
}

// Subscribe registers an observer for subsequent events
func (s *GalleryStore) Subscribe(obs GalleryObserver) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, obs)
}

// publish releases mu and delivers events. Observers must not call back into the store.
func (s *GalleryStore) publish(ctx context.Context, events ...GalleryEvent) {
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.observersMu.RLock()
	observers := slices.Clone(s.observers)
	s.observersMu.RUnlock()

	for _, event := range events {
		for _, obs := range observers {
			obs.OnGalleryEvent(ctx, event)
		}
	}
}

// absorb logs a persistence write failure; in-memory state stays authoritative
func (s *GalleryStore) absorb(ctx context.Context, key string, err error) {
	if err == nil {
		return
	}
	observability.WithContext(ctx).WithField("key", key).WithError(err).Warn("Persisting gallery state failed")
	s.opts.Metrics.RecordPersistenceError(ctx, key)
}

// Load adopts the persisted collection and favorites. It reports whether the
// collection is empty, in which case the caller should fetch the first page.
// It is refused while a fetch is in flight.
func (s *GalleryStore) Load(ctx context.Context) (bool, error) {
	artworks := s.repo.LoadArtworks(ctx)
	favorites := s.repo.LoadFavorites(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == models.StatusLoading {
		return false, models.ErrFetchInProgress
	}

	s.artworks = make([]models.Artwork, 0, len(artworks))
	s.ids = make(map[string]struct{}, len(artworks))
	for _, a := range artworks {
		// A hand-edited store may hold duplicates; the first one wins as in a merge
		if _, dup := s.ids[a.ID]; dup || a.ID == "" {
			continue
		}
		s.ids[a.ID] = struct{}{}
		s.artworks = append(s.artworks, a)
	}
	s.favorites = dedupeIDs(favorites)
	s.status = models.StatusIdle
	s.lastError = ""
	s.recompute()

	observability.WithContext(ctx).Infof("Loaded %d artworks and %d favorites from storage", len(s.artworks), len(s.favorites))
	return len(s.artworks) == 0, nil
}

// Init loads persisted state and, when the collection is empty, runs one fetch-more cycle
func (s *GalleryStore) Init(ctx context.Context) error {
	empty, err := s.Load(ctx)
	if err != nil || !empty {
		return err
	}
	_, err = s.FetchMore(ctx)
	return err
}

// FetchMore fetches the page at the cursor, merges the new ids onto the current
// collection and advances the cursor. While a fetch is in flight it returns
// models.ErrFetchInProgress without calling the catalog. On failure status becomes
// Error and the collection, cursor and favorites are left untouched. Cancelling ctx
// does not abort the cycle; it is bounded by the fetch timeout instead.
func (s *GalleryStore) FetchMore(ctx context.Context) (FetchResult, error) {
	ctx = context.WithoutCancel(ctx)
	s.mu.Lock()
	if s.status == models.StatusLoading {
		s.mu.Unlock()
		return FetchResult{}, models.ErrFetchInProgress
	}
	s.status = models.StatusLoading
	s.lastError = ""
	page := s.cursor
	s.mu.Unlock()

	ctx, span := observability.StartServiceSpan(ctx, "GalleryStore", "FetchMore")
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	raw, err := s.fetcher.Fetch(fetchCtx, page, s.opts.PageSize)
	cancel()

	if err != nil {
		s.mu.Lock()
		s.status = models.StatusError
		s.lastError = models.FetchFailedMessage
		observability.RecordError(span, err)
		s.opts.Metrics.RecordFetch(ctx, 0, false)
		s.publish(ctx, GalleryEvent{
			Type:   EventFetchFailed,
			Total:  len(s.artworks),
			Cursor: page,
			Error:  err.Error(),
		})
		return FetchResult{}, fmt.Errorf("fetch page %d: %w", page, err)
	}

	fresh := NormalizeRecords(raw)

	s.mu.Lock()
	merged := 0
	for _, a := range fresh {
		if _, known := s.ids[a.ID]; known {
			continue
		}
		s.ids[a.ID] = struct{}{}
		s.artworks = append(s.artworks, a)
		merged++
	}
	s.recompute()
	persistErr := s.repo.SaveArtworks(ctx, cloneArtworks(s.artworks))
	// The cursor advances even when nothing new arrived
	s.cursor++
	s.status = models.StatusIdle
	result := FetchResult{
		Page:     page,
		Received: len(raw),
		Merged:   merged,
		Total:    len(s.artworks),
		Cursor:   s.cursor,
	}

	s.absorb(ctx, repository.KeyArtworks, persistErr)
	s.opts.Metrics.RecordFetch(ctx, merged, true)
	observability.SetSuccess(span)
	s.publish(ctx, GalleryEvent{
		Type:   EventFetchCompleted,
		Merged: merged,
		Total:  result.Total,
		Cursor: result.Cursor,
	})
	return result, nil
}

// ToggleFavorite flips membership of id in the favorite set and persists it.
// The id is not checked against the collection.
func (s *GalleryStore) ToggleFavorite(ctx context.Context, id string) (bool, []string) {
	ctx = context.WithoutCancel(ctx)
	s.mu.Lock()
	added := false
	if i := slices.Index(s.favorites, id); i >= 0 {
		s.favorites = slices.Delete(slices.Clone(s.favorites), i, i+1)
	} else {
		s.favorites = append(slices.Clone(s.favorites), id)
		added = true
	}
	favorites := slices.Clone(s.favorites)
	persistErr := s.repo.SaveFavorites(ctx, slices.Clone(favorites))

	s.absorb(ctx, repository.KeyFavorites, persistErr)
	s.opts.Metrics.RecordFavoriteToggle(ctx, added)
	s.publish(ctx, GalleryEvent{
		Type:      EventFavoritesChanged,
		ArtworkID: id,
		Favorites: slices.Clone(favorites),
		Total:     len(s.artworks),
	})
	return added, favorites
}

// IsFavorite reports whether id is in the favorite set
func (s *GalleryStore) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.favorites, id)
}

// AddArtwork prepends a user submission with a fresh id. The input is assumed validated.
func (s *GalleryStore) AddArtwork(ctx context.Context, in models.ArtworkInput) models.Artwork {
	ctx = context.WithoutCancel(ctx)
	s.mu.Lock()
	id := s.opts.IDGenerator()
	for _, taken := s.ids[id]; taken; _, taken = s.ids[id] {
		id = s.opts.IDGenerator()
	}
	art := models.NewUserArtwork(id, in)
	s.ids[id] = struct{}{}
	s.artworks = append([]models.Artwork{art}, s.artworks...)
	s.recompute()
	persistErr := s.repo.SaveArtworks(ctx, cloneArtworks(s.artworks))

	s.absorb(ctx, repository.KeyArtworks, persistErr)
	s.opts.Metrics.RecordSubmission(ctx)

	submitted := art.Clone()
	s.publish(ctx, GalleryEvent{
		Type:      EventArtworkSubmitted,
		Artwork:   &submitted,
		ArtworkID: id,
		Total:     len(s.artworks),
	})
	return art.Clone()
}

// RemoveArtwork deletes a user submission and drops it from the favorites.
// Catalog items cannot be removed.
func (s *GalleryStore) RemoveArtwork(ctx context.Context, id string) error {
	ctx = context.WithoutCancel(ctx)
	s.mu.Lock()
	idx := slices.IndexFunc(s.artworks, func(a models.Artwork) bool { return a.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return models.ErrArtworkNotFound
	}
	if !s.artworks[idx].IsUserSubmission() {
		s.mu.Unlock()
		return models.ErrNotUserSubmission
	}

	removed := s.artworks[idx].Clone()
	s.artworks = slices.Delete(slices.Clone(s.artworks), idx, idx+1)
	delete(s.ids, id)
	if s.currentID == id {
		s.currentID = ""
	}
	s.recompute()
	artworksErr := s.repo.SaveArtworks(ctx, cloneArtworks(s.artworks))

	favoritesChanged := false
	var favoritesErr error
	if i := slices.Index(s.favorites, id); i >= 0 {
		s.favorites = slices.Delete(slices.Clone(s.favorites), i, i+1)
		favoritesErr = s.repo.SaveFavorites(ctx, slices.Clone(s.favorites))
		favoritesChanged = true
	}
	total := len(s.artworks)

	s.absorb(ctx, repository.KeyArtworks, artworksErr)
	s.absorb(ctx, repository.KeyFavorites, favoritesErr)

	events := []GalleryEvent{{Type: EventArtworkRemoved, Artwork: &removed, ArtworkID: id, Total: total}}
	if favoritesChanged {
		events = append(events, GalleryEvent{Type: EventFavoritesChanged, ArtworkID: id, Favorites: slices.Clone(s.favorites), Total: total})
	}
	s.publish(ctx, events...)
	return nil
}

// FilterArtworks merges a partial filter into the active one and returns the new view.
// Filters are session state and are not persisted.
func (s *GalleryStore) FilterArtworks(update models.FilterUpdate) []models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = update.Apply(s.filter)
	s.recompute()
	return cloneArtworks(s.view)
}

// SortArtworks changes the sort key and returns the new view
func (s *GalleryStore) SortArtworks(key models.SortKey) []models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = key
	s.recompute()
	return cloneArtworks(s.view)
}

// recompute rebuilds the derived view; mu must be held
func (s *GalleryStore) recompute() {
	s.view = ApplyFilterAndSort(s.artworks, s.filter, s.sort)
}

// View returns the filtered, sorted projection of the collection
func (s *GalleryStore) View() []models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneArtworks(s.view)
}

// Artworks returns the collection in raw order
func (s *GalleryStore) Artworks() []models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneArtworks(s.artworks)
}

// Favorites returns the favorite ids in the order they were added
func (s *GalleryStore) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.favorites)
}

// FavoriteArtworks returns the favorited artworks present in the collection, in collection order
func (s *GalleryStore) FavoriteArtworks() []models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Artwork{}
	for _, a := range s.artworks {
		if slices.Contains(s.favorites, a.ID) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Submissions returns the user submissions, newest first
func (s *GalleryStore) Submissions() []models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Artwork{}
	for _, a := range s.artworks {
		if a.IsUserSubmission() {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Artwork looks an artwork up by id
func (s *GalleryStore) Artwork(id string) (models.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id)
}

func (s *GalleryStore) lookup(id string) (models.Artwork, error) {
	if _, ok := s.ids[id]; !ok {
		return models.Artwork{}, models.ErrArtworkNotFound
	}
	for _, a := range s.artworks {
		if a.ID == id {
			return a.Clone(), nil
		}
	}
	return models.Artwork{}, models.ErrArtworkNotFound
}

// SetCurrentArtwork selects the artwork shown in the detail view
func (s *GalleryStore) SetCurrentArtwork(id string) (models.Artwork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	art, err := s.lookup(id)
	if err != nil {
		return models.Artwork{}, err
	}
	s.currentID = id
	return art, nil
}

// ClearCurrentArtwork deselects the detail view
func (s *GalleryStore) ClearCurrentArtwork() {
	s.mu.Lock()
	s.currentID = ""
	s.mu.Unlock()
}

// CurrentArtwork returns the selected artwork, or nil
func (s *GalleryStore) CurrentArtwork() *models.Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *GalleryStore) currentLocked() *models.Artwork {
	if s.currentID == "" {
		return nil
	}
	art, err := s.lookup(s.currentID)
	if err != nil {
		return nil
	}
	return &art
}

// Facets lists the tags and artists present in the collection
func (s *GalleryStore) Facets() models.Facets {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CollectFacets(s.artworks)
}

// Cursor returns the next page to fetch
func (s *GalleryStore) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Status returns the fetch status and the user-visible error message, if any
func (s *GalleryStore) Status() (models.FetchStatus, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.lastError
}

// State returns a snapshot of the whole store
func (s *GalleryStore) State() models.GalleryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.GalleryState{
		Artworks:       cloneArtworks(s.artworks),
		View:           cloneArtworks(s.view),
		Favorites:      slices.Clone(s.favorites),
		Filter:         s.filter.Clone(),
		Sort:           s.sort,
		Cursor:         s.cursor,
		Status:         s.status,
		Error:          s.lastError,
		CurrentArtwork: s.currentLocked(),
	}
}

// Reset empties the collection and rewinds the cursor to the first page.
// Favorites, filter and sort are kept. It is refused while a fetch is in flight.
func (s *GalleryStore) Reset(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	s.mu.Lock()
	if s.status == models.StatusLoading {
		s.mu.Unlock()
		return models.ErrFetchInProgress
	}
	s.artworks = []models.Artwork{}
	s.ids = make(map[string]struct{})
	s.cursor = 1
	s.status = models.StatusIdle
	s.lastError = ""
	s.currentID = ""
	s.recompute()
	persistErr := s.repo.SaveArtworks(ctx, []models.Artwork{})

	s.absorb(ctx, repository.KeyArtworks, persistErr)
	s.publish(ctx, GalleryEvent{Type: EventGalleryReset, Cursor: 1})
	return nil
}

func cloneArtworks(in []models.Artwork) []models.Artwork {
	out := make([]models.Artwork, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
