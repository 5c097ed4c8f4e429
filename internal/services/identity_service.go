package services

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/observability"
)

// AuthStateStore persists the local session
type AuthStateStore interface {
	LoadAuth(ctx context.Context) models.AuthState
	SaveAuth(ctx context.Context, state models.AuthState) error
	ClearAuth(ctx context.Context) error
}

// IdentityService holds the single local session. Credentials are not checked:
// any login or registration succeeds and replaces the current user.
type IdentityService struct {
	repo  AuthStateStore
	newID func() string

	mu    sync.RWMutex
	state models.AuthState
}

// NewIdentityService creates a signed-out identity service; call Load to restore the session
func NewIdentityService(repo AuthStateStore) *IdentityService {
	return &IdentityService{
		repo:  repo,
		newID: uuid.NewString,
	}
}

// Load restores the persisted session
func (s *IdentityService) Load(ctx context.Context) {
	state := s.repo.LoadAuth(ctx)
	if state.User != nil {
		u := normalizeUser(*state.User)
		state.User = &u
		state.IsAuthenticated = true
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if state.User != nil {
		observability.WithContext(ctx).WithField("user_id", state.User.ID).Info("Restored session")
	}
}

// Login signs in as username with a derived example.com address
func (s *IdentityService) Login(ctx context.Context, username, password string) models.User {
	username = strings.TrimSpace(username)
	return s.signIn(ctx, username, username+"@example.com")
}

// Register signs in as a new user with the given address
func (s *IdentityService) Register(ctx context.Context, username, email, password string) models.User {
	return s.signIn(ctx, strings.TrimSpace(username), strings.TrimSpace(email))
}

func (s *IdentityService) signIn(ctx context.Context, username, email string) models.User {
	user := models.User{
		ID:                s.newID(),
		Username:          username,
		Email:             email,
		FavoriteArtworks:  []string{},
		SubmittedArtworks: []string{},
	}

	s.mu.Lock()
	s.state = models.AuthState{User: &user, IsAuthenticated: true}
	s.persistLocked(ctx)
	s.mu.Unlock()

	observability.WithContext(ctx).WithField("user_id", user.ID).Infof("User %s signed in", username)
	return user.Clone()
}

// Logout forgets the session and removes it from storage
func (s *IdentityService) Logout(ctx context.Context) {
	s.mu.Lock()
	s.state = models.AuthState{}
	err := s.repo.ClearAuth(ctx)
	s.mu.Unlock()

	if err != nil {
		observability.WithContext(ctx).WithError(err).Warn("Clearing persisted session failed")
	}
}

// CurrentUser returns a copy of the signed-in user, or nil
func (s *IdentityService) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := s.state.User.Clone()
	return &u
}

// State returns the session as persisted
func (s *IdentityService) State() models.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return models.AuthState{}
	}
	u := s.state.User.Clone()
	return models.AuthState{User: &u, IsAuthenticated: true}
}

// UpdateUser merges a partial profile update into the signed-in user
func (s *IdentityService) UpdateUser(ctx context.Context, update models.UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.User == nil {
		return models.User{}, models.ErrNotAuthenticated
	}
	u := s.state.User.Clone()
	update.Apply(&u)
	u = normalizeUser(u)
	s.state.User = &u
	s.persistLocked(ctx)
	return u.Clone(), nil
}

// RecordFavorites replaces the favorites of userID. Calls for a user that is no longer
// signed in are ignored.
func (s *IdentityService) RecordFavorites(ctx context.Context, userID string, favorites []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrentLocked(userID) {
		return
	}
	s.state.User.FavoriteArtworks = slices.Clone(favorites)
	if s.state.User.FavoriteArtworks == nil {
		s.state.User.FavoriteArtworks = []string{}
	}
	s.persistLocked(ctx)
}

// RecordSubmission appends artworkID to the submissions of userID
func (s *IdentityService) RecordSubmission(ctx context.Context, userID, artworkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrentLocked(userID) || slices.Contains(s.state.User.SubmittedArtworks, artworkID) {
		return
	}
	s.state.User.SubmittedArtworks = append(slices.Clone(s.state.User.SubmittedArtworks), artworkID)
	s.persistLocked(ctx)
}

// ForgetSubmission drops artworkID from the submissions of userID
func (s *IdentityService) ForgetSubmission(ctx context.Context, userID, artworkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrentLocked(userID) {
		return
	}
	i := slices.Index(s.state.User.SubmittedArtworks, artworkID)
	if i < 0 {
		return
	}
	s.state.User.SubmittedArtworks = slices.Delete(slices.Clone(s.state.User.SubmittedArtworks), i, i+1)
	s.persistLocked(ctx)
}

func (s *IdentityService) isCurrentLocked(userID string) bool {
	return s.state.User != nil && s.state.User.ID == userID
}

// persistLocked writes the session; failures are logged since memory stays authoritative
func (s *IdentityService) persistLocked(ctx context.Context) {
	if err := s.repo.SaveAuth(ctx, s.state); err != nil {
		observability.WithContext(ctx).WithError(err).Warn("Persisting session failed")
	}
}

func normalizeUser(u models.User) models.User {
	if u.FavoriteArtworks == nil {
		u.FavoriteArtworks = []string{}
	}
	if u.SubmittedArtworks == nil {
		u.SubmittedArtworks = []string{}
	}
	return u
}

// SessionRecorder is what the session observer needs from the identity collaborator
type SessionRecorder interface {
	CurrentUser() *models.User
	RecordFavorites(ctx context.Context, userID string, favorites []string)
	RecordSubmission(ctx context.Context, userID, artworkID string)
	ForgetSubmission(ctx context.Context, userID, artworkID string)
}

// NewSessionObserver attributes favorite and submission events to the signed-in user.
// Without a session the events are not attributed to anyone.
func NewSessionObserver(session SessionRecorder) GalleryObserver {
	return GalleryObserverFunc(func(ctx context.Context, event GalleryEvent) {
		user := session.CurrentUser()
		if user == nil {
			return
		}
		switch event.Type {
		case EventFavoritesChanged:
			session.RecordFavorites(ctx, user.ID, event.Favorites)
		case EventArtworkSubmitted:
			session.RecordSubmission(ctx, user.ID, event.ArtworkID)
		case EventArtworkRemoved:
			session.ForgetSubmission(ctx, user.ID, event.ArtworkID)
		}
	})
}
