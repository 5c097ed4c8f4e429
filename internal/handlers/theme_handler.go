package handlers

import (
	"net/http"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/services"
)

// ThemeHandler handles theme API endpoints
type ThemeHandler struct {
	themeService *services.ThemeService
}

// NewThemeHandler creates a new ThemeHandler
func NewThemeHandler(themeService *services.ThemeService) *ThemeHandler {
	return &ThemeHandler{
		themeService: themeService,
	}
}

// GetTheme returns the active theme
// @Summary Get theme
// @Tags theme
// @Produce json
// @Success 200 {object} models.ThemeResponse "Active theme"
// @Router /api/theme [get]
func (h *ThemeHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.ThemeResponse{Theme: h.themeService.Current(r.Context())})
}

// SetTheme changes the theme
// @Summary Set theme
// @Tags theme
// @Accept json
// @Produce json
// @Param request body models.ThemeRequest true "Theme"
// @Success 200 {object} models.ThemeResponse "Active theme"
// @Failure 400 {object} models.ErrorResponse "Unknown theme"
// @Router /api/theme [put]
func (h *ThemeHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req models.ThemeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	theme, err := models.ParseTheme(req.Theme)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.ThemeResponse{Theme: h.themeService.Set(r.Context(), theme)})
}

// ToggleTheme flips between light and dark
// @Summary Toggle theme
// @Tags theme
// @Produce json
// @Success 200 {object} models.ThemeResponse "Active theme"
// @Router /api/theme/toggle [post]
func (h *ThemeHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.ThemeResponse{Theme: h.themeService.Toggle(r.Context())})
}
