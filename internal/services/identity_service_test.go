package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/repository"
)

func newTestIdentity(t *testing.T) (*IdentityService, *repository.GalleryStateRepository) {
	t.Helper()
	repo := repository.NewGalleryStateRepository(repository.NewMemoryStore(), "")
	svc := NewIdentityService(repo)
	svc.newID = func() string { return "user-1" }
	return svc, repo
}

func TestIdentityService_Login(t *testing.T) {
	svc, repo := newTestIdentity(t)

	assert.Nil(t, svc.CurrentUser())
	assert.False(t, svc.State().IsAuthenticated)

	user := svc.Login(t.Context(), " ada ", "anything")

	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, []string{}, user.FavoriteArtworks)

	persisted := repo.LoadAuth(t.Context())
	require.NotNil(t, persisted.User)
	assert.True(t, persisted.IsAuthenticated)
	assert.Equal(t, "user-1", persisted.User.ID)

	t.Run("a new service restores the session", func(t *testing.T) {
		restored := NewIdentityService(repo)
		restored.Load(t.Context())
		require.NotNil(t, restored.CurrentUser())
		assert.Equal(t, "ada", restored.CurrentUser().Username)
	})

	t.Run("logout clears storage", func(t *testing.T) {
		svc.Logout(t.Context())
		assert.Nil(t, svc.CurrentUser())
		assert.Nil(t, repo.LoadAuth(t.Context()).User)
	})
}

func TestIdentityService_Register(t *testing.T) {
	svc, _ := newTestIdentity(t)

	user := svc.Register(t.Context(), "grace", " grace@navy.mil ", "secret")
	assert.Equal(t, "grace@navy.mil", user.Email)

	t.Run("registering again replaces the user", func(t *testing.T) {
		svc.newID = func() string { return "user-2" }
		svc.Register(t.Context(), "alan", "alan@bletchley.uk", "secret")
		assert.Equal(t, "user-2", svc.CurrentUser().ID)
	})
}

func TestIdentityService_UpdateUser(t *testing.T) {
	svc, _ := newTestIdentity(t)
	name := "new-name"

	_, err := svc.UpdateUser(t.Context(), models.UserUpdate{Username: &name})
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	svc.Login(t.Context(), "old", "")
	user, err := svc.UpdateUser(t.Context(), models.UserUpdate{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "new-name", user.Username)
	assert.Equal(t, "old@example.com", user.Email)
}

func TestIdentityService_Records(t *testing.T) {
	svc, _ := newTestIdentity(t)
	svc.Login(t.Context(), "ada", "")
	ctx := t.Context()

	svc.RecordFavorites(ctx, "user-1", []string{"a", "b"})
	svc.RecordSubmission(ctx, "user-1", "user-x")
	svc.RecordSubmission(ctx, "user-1", "user-x")
	svc.RecordFavorites(ctx, "someone-else", []string{"z"})

	u := svc.CurrentUser()
	assert.Equal(t, []string{"a", "b"}, u.FavoriteArtworks)
	assert.Equal(t, []string{"user-x"}, u.SubmittedArtworks)

	svc.ForgetSubmission(ctx, "user-1", "user-x")
	assert.Empty(t, svc.CurrentUser().SubmittedArtworks)

	t.Run("returned users do not alias the session", func(t *testing.T) {
		u := svc.CurrentUser()
		u.FavoriteArtworks[0] = "tampered"
		assert.Equal(t, "a", svc.CurrentUser().FavoriteArtworks[0])
	})
}

func TestSessionObserver(t *testing.T) {
	identity, _ := newTestIdentity(t)
	repo := &fakeStateStore{}
	store := newTestStore(t, repo, &fakeFetcher{fetch: pages(nil)})
	store.Subscribe(NewSessionObserver(identity))

	t.Run("nothing is attributed without a session", func(t *testing.T) {
		store.ToggleFavorite(t.Context(), "a")
		assert.Nil(t, identity.CurrentUser())
	})

	identity.Login(t.Context(), "ada", "")

	t.Run("favorites and submissions follow the store", func(t *testing.T) {
		store.ToggleFavorite(t.Context(), "b")
		sub := store.AddArtwork(t.Context(), models.ArtworkInput{Title: "t", Artist: "a", ImageURL: "https://x/y"})

		u := identity.CurrentUser()
		assert.Equal(t, []string{"a", "b"}, u.FavoriteArtworks)
		assert.Equal(t, []string{sub.ID}, u.SubmittedArtworks)

		require.NoError(t, store.RemoveArtwork(t.Context(), sub.ID))
		assert.Empty(t, identity.CurrentUser().SubmittedArtworks)
	})
}
