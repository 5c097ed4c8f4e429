package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/observability"
	"github.com/artgallery/server/internal/services"
)

// GalleryHandler serves the artwork collection, its derived view and pagination
type GalleryHandler struct {
	store *services.GalleryStore
}

// NewGalleryHandler creates a new GalleryHandler
func NewGalleryHandler(store *services.GalleryStore) *GalleryHandler {
	return &GalleryHandler{store: store}
}

// Status returns a summary of the store
// @Summary Gallery status
// @Description Summarises the store: counts, active filter and sort, cursor, fetch status and current artwork
// @Tags gallery
// @Produce json
// @Success 200 {object} models.GalleryStatusResponse "Gallery status"
// @Router /api/gallery [get]
func (h *GalleryHandler) Status(w http.ResponseWriter, r *http.Request) {
	state := h.store.State()
	respondJSON(w, http.StatusOK, models.GalleryStatusResponse{
		TotalArtworks:  len(state.Artworks),
		VisibleCount:   len(state.View),
		FavoriteCount:  len(state.Favorites),
		Filter:         state.Filter,
		Filtered:       !state.Filter.IsEmpty(),
		Sort:           state.Sort,
		Cursor:         state.Cursor,
		Status:         state.Status,
		Loading:        state.Loading(),
		Error:          state.Error,
		CurrentArtwork: state.CurrentArtwork,
	})
}

// List returns the filtered, sorted view. The search, tag, artist and sort query
// parameters are applied to the active filter and sort before listing.
// @Summary List artworks
// @Description Get the filtered, sorted view of the collection
// @Tags artworks
// @Produce json
// @Param search query string false "Search term matched against title, artist and description"
// @Param tag query []string false "Tag filter, repeatable" collectionFormat(multi)
// @Param artist query string false "Artist name filter"
// @Param sort query string false "Sort key" Enums(latest, oldest, title, artist)
// @Success 200 {object} models.ArtworkListResponse "Derived view"
// @Failure 400 {object} models.ErrorResponse "Invalid sort key"
// @Router /api/artworks [get]
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if raw, ok := queryValue(query, "sort"); ok {
		key, err := models.ParseSortKey(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.store.SortArtworks(key)
	}
	if update := filterFromQuery(query); !update.IsEmpty() {
		h.store.FilterArtworks(update)
	}

	h.respondList(w, h.store.View())
}

// All returns the collection in raw order, ignoring the filter
// @Summary List the raw collection
// @Description Get every artwork in collection order, ignoring the active filter
// @Tags artworks
// @Produce json
// @Success 200 {object} models.ArtworkListResponse "Collection"
// @Router /api/artworks/all [get]
func (h *GalleryHandler) All(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, h.store.Artworks())
}

// Get returns one artwork and makes it the current artwork
// @Summary Get artwork by ID
// @Description Get one artwork and make it the current artwork
// @Tags artworks
// @Produce json
// @Param id path string true "Artwork ID"
// @Success 200 {object} models.ArtworkResponse "Artwork"
// @Failure 404 {object} models.ErrorResponse "Artwork not found"
// @Router /api/artworks/{id} [get]
func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	art, err := h.store.SetCurrentArtwork(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.toResponse(art))
}

// Submit adds a user artwork to the front of the collection
// @Summary Submit an artwork
// @Description Add a user artwork to the front of the collection. Requires a session.
// @Tags artworks
// @Accept json
// @Produce json
// @Param request body models.SubmitArtworkRequest true "Artwork to submit"
// @Success 201 {object} models.ArtworkResponse "Artwork submitted"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Not signed in"
// @Router /api/artworks [post]
func (h *GalleryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitArtworkRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	art := h.store.AddArtwork(r.Context(), req.ToInput())
	observability.WithContext(r.Context()).WithField("artwork_id", art.ID).Infof("Artwork submitted: %s", art.Title)
	respondJSON(w, http.StatusCreated, h.toResponse(art))
}

// Delete removes a user submission
// @Summary Delete a submission
// @Description Remove a user submission and drop it from the favorites. Catalog artworks cannot be deleted.
// @Tags artworks
// @Param id path string true "Artwork ID"
// @Success 204 "Artwork deleted"
// @Failure 403 {object} models.ErrorResponse "Not a user submission"
// @Failure 404 {object} models.ErrorResponse "Artwork not found"
// @Router /api/artworks/{id} [delete]
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveArtwork(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FetchMore loads the next catalog page
// @Summary Fetch more artworks
// @Description Fetch the catalog page at the cursor and merge its new artworks
// @Tags artworks
// @Produce json
// @Success 200 {object} models.FetchResponse "Page merged"
// @Failure 409 {object} models.ErrorResponse "A fetch is already in progress"
// @Failure 502 {object} models.ErrorResponse "Catalog unavailable"
// @Router /api/artworks/fetch [post]
func (h *GalleryHandler) FetchMore(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.FetchMore(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrFetchInProgress) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		observability.WithContext(r.Context()).WithError(err).Warn("Fetch more failed")
		respondError(w, http.StatusBadGateway, models.FetchFailedMessage)
		return
	}

	status, _ := h.store.Status()
	respondJSON(w, http.StatusOK, models.FetchResponse{
		Merged: result.Merged,
		Total:  result.Total,
		Cursor: result.Cursor,
		Status: status,
	})
}

// UpdateFilter merges a partial filter into the active one
// @Summary Update the filter
// @Description Merge a partial filter into the active one and return the new view
// @Tags gallery
// @Accept json
// @Produce json
// @Param request body models.FilterUpdate true "Fields to change"
// @Success 200 {object} models.ArtworkListResponse "Derived view"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /api/gallery/filter [put]
func (h *GalleryHandler) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	var update models.FilterUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Request body must be valid JSON.")
		return
	}
	h.respondList(w, h.store.FilterArtworks(update))
}

// UpdateSort changes the sort key
// @Summary Update the sort key
// @Description Change the sort key and return the new view
// @Tags gallery
// @Accept json
// @Produce json
// @Param request body models.SortRequest true "Sort key"
// @Success 200 {object} models.ArtworkListResponse "Derived view"
// @Failure 400 {object} models.ErrorResponse "Invalid sort key"
// @Router /api/gallery/sort [put]
func (h *GalleryHandler) UpdateSort(w http.ResponseWriter, r *http.Request) {
	var req models.SortRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	key, err := models.ParseSortKey(req.Sort)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondList(w, h.store.SortArtworks(key))
}

// Facets lists the tags and artists usable as filters
// @Summary List filter facets
// @Description Get the distinct tags and artists present in the collection
// @Tags gallery
// @Produce json
// @Success 200 {object} models.Facets "Facets"
// @Router /api/gallery/facets [get]
func (h *GalleryHandler) Facets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Facets())
}

// Reset empties the collection and rewinds pagination
// @Summary Reset the collection
// @Description Empty the collection and rewind the cursor. Favorites, filter and sort are kept.
// @Tags gallery
// @Produce json
// @Success 200 {object} models.GalleryStatusResponse "Gallery status after reset"
// @Failure 409 {object} models.ErrorResponse "A fetch is in progress"
// @Router /api/gallery/reset [post]
func (h *GalleryHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(r.Context()); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	h.Status(w, r)
}

// ClearCurrent closes the detail view
// @Summary Close the detail view
// @Description Clear the current artwork
// @Tags gallery
// @Success 204 "Current artwork cleared"
// @Router /api/gallery/current [delete]
func (h *GalleryHandler) ClearCurrent(w http.ResponseWriter, r *http.Request) {
	h.store.ClearCurrentArtwork()
	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites returns the favorited artworks in collection order
// @Summary List favorites
// @Description Get the favorited artworks in collection order
// @Tags favorites
// @Produce json
// @Success 200 {object} models.ArtworkListResponse "Favorite artworks"
// @Router /api/favorites [get]
func (h *GalleryHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, h.store.FavoriteArtworks())
}

// ToggleFavorite adds or removes an artwork from the favorites
// @Summary Toggle a favorite
// @Description Add or remove an artwork from the favorites. The id is not checked against the collection.
// @Tags favorites
// @Produce json
// @Param id path string true "Artwork ID"
// @Success 200 {object} models.FavoriteToggleResponse "Favorite state"
// @Router /api/favorites/{id}/toggle [post]
func (h *GalleryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	added, favorites := h.store.ToggleFavorite(r.Context(), id)
	respondJSON(w, http.StatusOK, models.FavoriteToggleResponse{
		ArtworkID:  id,
		IsFavorite: added,
		Favorites:  favorites,
	})
}

func (h *GalleryHandler) respondList(w http.ResponseWriter, artworks []models.Artwork) {
	state := h.store.State()
	respondJSON(w, http.StatusOK, models.ArtworkListResponse{
		Artworks:   h.toResponses(artworks),
		TotalCount: len(artworks),
		Filter:     state.Filter,
		Sort:       state.Sort,
		Status:     state.Status,
		Error:      state.Error,
	})
}

func (h *GalleryHandler) toResponse(a models.Artwork) models.ArtworkResponse {
	return models.ArtworkResponse{
		Artwork:       a,
		IsFavorite:    h.store.IsFavorite(a.ID),
		CollectionURL: a.CollectionURL(),
	}
}

func (h *GalleryHandler) toResponses(artworks []models.Artwork) []models.ArtworkResponse {
	favorites := make(map[string]bool)
	for _, id := range h.store.Favorites() {
		favorites[id] = true
	}
	out := make([]models.ArtworkResponse, len(artworks))
	for i, a := range artworks {
		out[i] = models.ArtworkResponse{
			Artwork:       a,
			IsFavorite:    favorites[a.ID],
			CollectionURL: a.CollectionURL(),
		}
	}
	return out
}

func queryValue(q url.Values, name string) (string, bool) {
	if !q.Has(name) {
		return "", false
	}
	return q.Get(name), true
}

func filterFromQuery(q url.Values) models.FilterUpdate {
	var update models.FilterUpdate
	if v, ok := queryValue(q, "search"); ok {
		update.SearchTerm = &v
	}
	if v, ok := queryValue(q, "artist"); ok {
		update.ArtistName = &v
	}
	if q.Has("tag") {
		tags := q["tag"]
		update.Tags = &tags
	}
	return update
}
