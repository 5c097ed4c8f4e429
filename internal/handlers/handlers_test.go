package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/repository"
	"github.com/artgallery/server/internal/services"
)

type fetchFunc func(ctx context.Context, page, pageSize int) ([]services.RawRecord, error)

func (f fetchFunc) Fetch(ctx context.Context, page, pageSize int) ([]services.RawRecord, error) {
	return f(ctx, page, pageSize)
}

func catalogPage(ids ...string) fetchFunc {
	return func(context.Context, int, int) ([]services.RawRecord, error) {
		out := make([]services.RawRecord, 0, len(ids))
		for i, id := range ids {
			out = append(out, services.RawRecord{
				ID:             id,
				Title:          "Painting " + id,
				Artist:         []string{"Claude Monet", "Rembrandt"}[i%2],
				ImageURL:       "https://images.example.org/" + id + ".jpg",
				Date:           "1880",
				Classification: "Paintings",
			})
		}
		return out, nil
	}
}

type testServer struct {
	router   chi.Router
	store    *services.GalleryStore
	identity *services.IdentityService
	hub      *services.WebSocketHub
	state    *repository.GalleryStateRepository
}

func newTestServer(t *testing.T, fetcher services.CatalogFetcher) *testServer {
	t.Helper()

	state := repository.NewGalleryStateRepository(repository.NewMemoryStore(), "")
	identity := services.NewIdentityService(state)
	store := services.NewGalleryStore(state, fetcher, services.GalleryStoreOptions{PageSize: 4, FetchTimeout: time.Second})
	store.Subscribe(services.NewSessionObserver(identity))

	hub := services.NewWebSocketHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	store.Subscribe(services.NewHubObserver(hub))

	r := chi.NewRouter()
	Mount(r, Routes{
		Health:    NewHealthHandler(),
		Gallery:   NewGalleryHandler(store),
		Auth:      NewAuthHandler(identity, store),
		Theme:     NewThemeHandler(services.NewThemeService(state)),
		WebSocket: NewWebSocketHandler(hub),
		Session:   identity,
	})

	return &testServer{router: r, store: store, identity: identity, hub: hub, state: state}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func validSubmission() models.SubmitArtworkRequest {
	return models.SubmitArtworkRequest{
		Title:       "Harbor at Dusk",
		Artist:      "Sam Rivera",
		Description: "Boats at rest",
		ImageURL:    "https://example.org/harbor.jpg",
		Year:        2023,
		TagList:     "Seascape, Modern",
	}
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t, catalogPage())

	for _, path := range []string{"/health", "/api/health"} {
		rec := srv.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", decode[models.HealthResponse](t, rec).Status)
	}
}

func TestGalleryHandler_FetchAndList(t *testing.T) {
	srv := newTestServer(t, catalogPage("1", "2", "3"))

	rec := srv.do(t, http.MethodPost, "/api/artworks/fetch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[models.FetchResponse](t, rec)
	assert.Equal(t, 3, fetched.Merged)
	assert.Equal(t, 2, fetched.Cursor)
	assert.Equal(t, models.StatusIdle, fetched.Status)

	t.Run("lists the view with affordances", func(t *testing.T) {
		list := decode[models.ArtworkListResponse](t, srv.do(t, http.MethodGet, "/api/artworks", nil))
		require.Len(t, list.Artworks, 3)
		assert.Equal(t, models.MetCollectionURL+"1", list.Artworks[0].CollectionURL)
		assert.False(t, list.Artworks[0].IsFavorite)
	})

	t.Run("query parameters update filter and sort", func(t *testing.T) {
		list := decode[models.ArtworkListResponse](t, srv.do(t, http.MethodGet, "/api/artworks?artist=monet&sort=title", nil))
		assert.Equal(t, 2, list.TotalCount)
		assert.Equal(t, "monet", list.Filter.ArtistName)
		assert.Equal(t, models.SortTitle, list.Sort)

		status := decode[models.GalleryStatusResponse](t, srv.do(t, http.MethodGet, "/api/gallery", nil))
		assert.Equal(t, 3, status.TotalArtworks)
		assert.Equal(t, 2, status.VisibleCount)
		assert.True(t, status.Filtered)
	})

	t.Run("rejects unknown sort keys", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/artworks?sort=price", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("filter body clears fields that are set", func(t *testing.T) {
		rec := srv.do(t, http.MethodPut, "/api/gallery/filter", map[string]any{"artistName": ""})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, decode[models.ArtworkListResponse](t, rec).TotalCount)

		status := decode[models.GalleryStatusResponse](t, srv.do(t, http.MethodGet, "/api/gallery", nil))
		assert.False(t, status.Filtered)
	})

	t.Run("sort body", func(t *testing.T) {
		rec := srv.do(t, http.MethodPut, "/api/gallery/sort", models.SortRequest{Sort: "year"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.SortYear, decode[models.ArtworkListResponse](t, rec).Sort)

		rec = srv.do(t, http.MethodPut, "/api/gallery/sort", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("facets", func(t *testing.T) {
		facets := decode[models.Facets](t, srv.do(t, http.MethodGet, "/api/gallery/facets", nil))
		assert.Equal(t, []string{"Paintings"}, facets.Tags)
		assert.Equal(t, []string{"Claude Monet", "Rembrandt"}, facets.Artists)
	})

	t.Run("get sets the current artwork", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/artworks/2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", decode[models.ArtworkResponse](t, rec).ID)

		status := decode[models.GalleryStatusResponse](t, srv.do(t, http.MethodGet, "/api/gallery", nil))
		require.NotNil(t, status.CurrentArtwork)
		assert.Equal(t, "2", status.CurrentArtwork.ID)

		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/artworks/404", nil).Code)
	})

	t.Run("closing the detail view clears the current artwork", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/api/gallery/current", nil).Code)

		status := decode[models.GalleryStatusResponse](t, srv.do(t, http.MethodGet, "/api/gallery", nil))
		assert.Nil(t, status.CurrentArtwork)
	})

	t.Run("catalog items cannot be deleted", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodDelete, "/api/artworks/1", nil).Code)
	})

	t.Run("reset rewinds pagination", func(t *testing.T) {
		status := decode[models.GalleryStatusResponse](t, srv.do(t, http.MethodPost, "/api/gallery/reset", nil))
		assert.Zero(t, status.TotalArtworks)
		assert.Equal(t, 1, status.Cursor)
	})
}

func TestGalleryHandler_FetchErrors(t *testing.T) {
	t.Run("upstream failure is a bad gateway", func(t *testing.T) {
		srv := newTestServer(t, fetchFunc(func(context.Context, int, int) ([]services.RawRecord, error) {
			return nil, errors.New("connection refused")
		}))

		rec := srv.do(t, http.MethodPost, "/api/artworks/fetch", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, models.FetchFailedMessage, decode[models.ErrorResponse](t, rec).Error)

		status := decode[models.GalleryStatusResponse](t, srv.do(t, http.MethodGet, "/api/gallery", nil))
		assert.Equal(t, models.StatusError, status.Status)
		assert.Equal(t, models.FetchFailedMessage, status.Error)
	})

	t.Run("concurrent fetch is a conflict", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		var once sync.Once
		srv := newTestServer(t, fetchFunc(func(context.Context, int, int) ([]services.RawRecord, error) {
			once.Do(func() { close(started) })
			<-release
			return nil, nil
		}))

		done := make(chan int)
		go func() {
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/artworks/fetch", nil))
			done <- rec.Code
		}()
		<-started

		assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, "/api/artworks/fetch", nil).Code)
		assert.True(t, decode[models.GalleryStatusResponse](t, srv.do(t, http.MethodGet, "/api/gallery", nil)).Loading)
		assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, "/api/gallery/reset", nil).Code)

		close(release)
		assert.Equal(t, http.StatusOK, <-done)
	})
}

func TestGalleryHandler_Submit(t *testing.T) {
	srv := newTestServer(t, catalogPage("1"))
	srv.do(t, http.MethodPost, "/api/artworks/fetch", nil)

	t.Run("requires a session", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/artworks", validSubmission())
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	srv.do(t, http.MethodPost, "/api/auth/login", models.LoginRequest{Username: "sam", Password: "x"})

	t.Run("reports every invalid field", func(t *testing.T) {
		req := validSubmission()
		req.Title = " "
		req.ImageURL = "example.org/x.jpg"
		req.Year = 20230

		rec := srv.do(t, http.MethodPost, "/api/artworks", req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		names := []string{}
		for _, f := range decode[models.ErrorResponse](t, rec).Fields {
			names = append(names, f.Name)
		}
		assert.ElementsMatch(t, []string{"title", "imageUrl", "year"}, names)
	})

	t.Run("rejects malformed JSON and unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/artworks", strings.NewReader(`{"title": "x", "price": 3}`))
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	var created models.ArtworkResponse
	t.Run("prepends the submission", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/artworks", validSubmission())
		require.Equal(t, http.StatusCreated, rec.Code)
		created = decode[models.ArtworkResponse](t, rec)

		assert.True(t, strings.HasPrefix(created.ID, models.UserIDPrefix))
		assert.Equal(t, models.SourceUser, created.Source)
		assert.Equal(t, []string{"Seascape", "Modern"}, created.Tags)
		assert.Empty(t, created.CollectionURL)

		all := decode[models.ArtworkListResponse](t, srv.do(t, http.MethodGet, "/api/artworks/all", nil))
		assert.Equal(t, created.ID, all.Artworks[0].ID)
		assert.Equal(t, []string{created.ID}, srv.identity.CurrentUser().SubmittedArtworks)
	})

	t.Run("profile lists favorites and submissions", func(t *testing.T) {
		srv.do(t, http.MethodPost, "/api/favorites/1/toggle", nil)

		profile := decode[models.ProfileResponse](t, srv.do(t, http.MethodGet, "/api/profile", nil))
		assert.Equal(t, "sam", profile.User.Username)
		require.Len(t, profile.Favorites, 1)
		assert.Equal(t, "1", profile.Favorites[0].ID)
		require.Len(t, profile.Submissions, 1)
		assert.Equal(t, created.ID, profile.Submissions[0].ID)
	})

	t.Run("the submitter can delete it", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/api/artworks/"+created.ID, nil).Code)
		assert.Empty(t, srv.identity.CurrentUser().SubmittedArtworks)
		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/api/artworks/"+created.ID, nil).Code)
	})
}

func TestGalleryHandler_Favorites(t *testing.T) {
	srv := newTestServer(t, catalogPage("1", "2"))
	srv.do(t, http.MethodPost, "/api/artworks/fetch", nil)

	rec := srv.do(t, http.MethodPost, "/api/favorites/2/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decode[models.FavoriteToggleResponse](t, rec)
	assert.True(t, toggled.IsFavorite)
	assert.Equal(t, []string{"2"}, toggled.Favorites)
	assert.Equal(t, []string{"2"}, srv.state.LoadFavorites(t.Context()))

	favs := decode[models.ArtworkListResponse](t, srv.do(t, http.MethodGet, "/api/favorites", nil))
	require.Len(t, favs.Artworks, 1)
	assert.True(t, favs.Artworks[0].IsFavorite)

	toggled = decode[models.FavoriteToggleResponse](t, srv.do(t, http.MethodPost, "/api/favorites/2/toggle", nil))
	assert.False(t, toggled.IsFavorite)
	assert.Empty(t, toggled.Favorites)
}

func TestAuthHandler(t *testing.T) {
	srv := newTestServer(t, catalogPage())

	me := decode[models.AuthState](t, srv.do(t, http.MethodGet, "/api/auth/me", nil))
	assert.False(t, me.IsAuthenticated)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/api/profile", nil).Code)

	t.Run("register validates the email", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/auth/register", models.RegisterRequest{Username: "ada", Email: "nope", Password: "secret1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("register signs in", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/auth/register", models.RegisterRequest{Username: "ada", Email: "ada@example.org", Password: "secret1"})
		require.Equal(t, http.StatusCreated, rec.Code)
		state := decode[models.AuthState](t, rec)
		assert.True(t, state.IsAuthenticated)
		assert.Equal(t, "ada@example.org", state.User.Email)
	})

	t.Run("update merges fields", func(t *testing.T) {
		rec := srv.do(t, http.MethodPatch, "/api/auth/me", map[string]string{"username": "countess"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "countess", decode[models.User](t, rec).Username)
	})

	t.Run("logout ends the session", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodPost, "/api/auth/logout", nil).Code)
		assert.False(t, decode[models.AuthState](t, srv.do(t, http.MethodGet, "/api/auth/me", nil)).IsAuthenticated)
	})
}

func TestThemeHandler(t *testing.T) {
	srv := newTestServer(t, catalogPage())

	assert.Equal(t, models.ThemeLight, decode[models.ThemeResponse](t, srv.do(t, http.MethodGet, "/api/theme", nil)).Theme)
	assert.Equal(t, models.ThemeDark, decode[models.ThemeResponse](t, srv.do(t, http.MethodPost, "/api/theme/toggle", nil)).Theme)
	assert.Equal(t, models.ThemeDark, srv.state.LoadTheme(t.Context()))

	rec := srv.do(t, http.MethodPut, "/api/theme", models.ThemeRequest{Theme: "sepia"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/theme", models.ThemeRequest{Theme: "LIGHT"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ThemeLight, decode[models.ThemeResponse](t, rec).Theme)
}

func TestWebSocketHandler(t *testing.T) {
	srv := newTestServer(t, catalogPage("1"))
	httpSrv := httptest.NewServer(srv.router)
	defer httpSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return srv.hub.GetTopicSubscriberCount(services.TopicGallery) == 1
	}, 2*time.Second, 10*time.Millisecond)

	readMessage := func() services.WSMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg services.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	t.Run("answers pings", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(services.WSMessage{Type: services.WSTypePing}))
		assert.Equal(t, services.WSTypePong, readMessage().Type)
	})

	t.Run("streams gallery events", func(t *testing.T) {
		srv.do(t, http.MethodPost, "/api/favorites/1/toggle", nil)

		msg := readMessage()
		assert.Equal(t, services.WSTypeGalleryEvent, msg.Type)
		payload := msg.Payload.(map[string]any)
		assert.Equal(t, string(services.EventFavoritesChanged), payload["type"])
	})
}
