package handlers

import (
	"net/http"

	"github.com/artgallery/server/internal/middleware"
	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/services"
)

// AuthHandler serves the local session. Any credentials are accepted.
type AuthHandler struct {
	identity *services.IdentityService
	store    *services.GalleryStore
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(identity *services.IdentityService, store *services.GalleryStore) *AuthHandler {
	return &AuthHandler{identity: identity, store: store}
}

// Login signs in and returns the user
// @Summary Sign in
// @Description Start a local session. Credentials are not checked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthState "Signed in"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.identity.Login(r.Context(), req.Username, req.Password)
	respondJSON(w, http.StatusOK, h.identity.State())
}

// Register creates a user and signs in
// @Summary Register
// @Description Create a user and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "New user"
// @Success 201 {object} models.AuthState "Registered"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.identity.Register(r.Context(), req.Username, req.Email, req.Password)
	respondJSON(w, http.StatusCreated, h.identity.State())
}

// Logout ends the session
// @Summary Sign out
// @Description End the session and forget it in storage
// @Tags auth
// @Success 204 "Signed out"
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.identity.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the session, signed in or not
// @Summary Current session
// @Description Get the session, signed in or not
// @Tags auth
// @Produce json
// @Success 200 {object} models.AuthState "Session"
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.identity.State())
}

// UpdateMe applies a partial profile update
// @Summary Update profile
// @Description Apply a partial update to the signed-in user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.UserUpdate true "Fields to change"
// @Success 200 {object} models.User "Updated user"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Not signed in"
// @Router /api/auth/me [patch]
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var update models.UserUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "Request body must be valid JSON.")
		return
	}
	user, err := h.identity.UpdateUser(r.Context(), update)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Profile returns the signed-in user with their favorite and submitted artworks.
// Requires RequireSession.
// @Summary User profile
// @Description Get the signed-in user with their favorite and submitted artworks
// @Tags auth
// @Produce json
// @Success 200 {object} models.ProfileResponse "Profile"
// @Failure 401 {object} models.ErrorResponse "Not signed in"
// @Router /api/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, models.ErrNotAuthenticated.Error())
		return
	}

	favorites := h.store.FavoriteArtworks()
	submissions := []models.ArtworkResponse{}
	for _, a := range h.store.Submissions() {
		submissions = append(submissions, models.ArtworkResponse{
			Artwork:       a,
			IsFavorite:    h.store.IsFavorite(a.ID),
			CollectionURL: a.CollectionURL(),
		})
	}

	favoriteResponses := make([]models.ArtworkResponse, len(favorites))
	for i, a := range favorites {
		favoriteResponses[i] = models.ArtworkResponse{Artwork: a, IsFavorite: true, CollectionURL: a.CollectionURL()}
	}

	respondJSON(w, http.StatusOK, models.ProfileResponse{
		User:        *user,
		Favorites:   favoriteResponses,
		Submissions: submissions,
	})
}
