package models

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// SubmitArtworkRequest is the body of a new artwork submission
type SubmitArtworkRequest struct {
	Title       string   `json:"title" validate:"required,notblank"`
	Artist      string   `json:"artist" validate:"required,notblank"`
	Description string   `json:"description" validate:"required,notblank"`
	ImageURL    string   `json:"imageUrl" validate:"required,httpurl"`
	Year        int      `json:"year" validate:"min=0,max=9999"`
	Medium      string   `json:"medium"`
	Dimensions  string   `json:"dimensions"`
	Tags        []string `json:"tags"`
	// TagList is the comma-separated form of Tags
	TagList string `json:"tagList,omitempty"`
}

// ToInput converts the request to store input, merging both tag forms
func (r SubmitArtworkRequest) ToInput() ArtworkInput {
	tags := CleanTags(r.Tags)
	tags = append(tags, SplitTags(r.TagList)...)
	return ArtworkInput{
		Title:       strings.TrimSpace(r.Title),
		Artist:      strings.TrimSpace(r.Artist),
		Description: strings.TrimSpace(r.Description),
		ImageURL:    strings.TrimSpace(r.ImageURL),
		Year:        r.Year,
		Medium:      strings.TrimSpace(r.Medium),
		Dimensions:  strings.TrimSpace(r.Dimensions),
		Tags:        tags,
	}
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SortRequest is the body of PUT /api/gallery/sort
type SortRequest struct {
	Sort string `json:"sort" validate:"required"`
}

// ThemeRequest is the body of PUT /api/theme
type ThemeRequest struct {
	Theme string `json:"theme" validate:"required"`
}

// ArtworkResponse is a single artwork with client affordances
type ArtworkResponse struct {
	Artwork
	IsFavorite    bool   `json:"isFavorite"`
	CollectionURL string `json:"collectionUrl,omitempty"`
}

// ArtworkListResponse is returned when listing artworks
type ArtworkListResponse struct {
	Artworks   []ArtworkResponse `json:"artworks"`
	TotalCount int               `json:"totalCount"`
	Filter     FilterConfig      `json:"filter"`
	Sort       SortKey           `json:"sort"`
	Status     FetchStatus       `json:"status"`
	Error      string            `json:"error,omitempty"`
}

// GalleryStatusResponse summarises the store without the collection itself
type GalleryStatusResponse struct {
	TotalArtworks  int          `json:"totalArtworks"`
	VisibleCount   int          `json:"visibleCount"`
	FavoriteCount  int          `json:"favoriteCount"`
	Filter         FilterConfig `json:"filter"`
	Filtered       bool         `json:"filtered"`
	Sort           SortKey      `json:"sort"`
	Cursor         int          `json:"cursor"`
	Status         FetchStatus  `json:"status"`
	Loading        bool         `json:"loading"`
	Error          string       `json:"error,omitempty"`
	CurrentArtwork *Artwork     `json:"currentArtwork,omitempty"`
}

// FetchResponse is returned after a fetch-more cycle
type FetchResponse struct {
	Merged int         `json:"merged"`
	Total  int         `json:"total"`
	Cursor int         `json:"cursor"`
	Status FetchStatus `json:"status"`
}

// FavoriteToggleResponse is returned after toggling a favorite
type FavoriteToggleResponse struct {
	ArtworkID  string   `json:"artworkId"`
	IsFavorite bool     `json:"isFavorite"`
	Favorites  []string `json:"favorites"`
}

// ProfileResponse is the signed-in user's profile page
type ProfileResponse struct {
	User        User              `json:"user"`
	Favorites   []ArtworkResponse `json:"favorites"`
	Submissions []ArtworkResponse `json:"submissions"`
}

// ThemeResponse carries the current theme
type ThemeResponse struct {
	Theme Theme `json:"theme"`
}

// HealthResponse is returned by health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// FieldError describes one invalid request field
type FieldError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

var submissionURLPattern = regexp.MustCompile(`^https?://.+`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.Split(f.Tag.Get("json"), ",")[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return submissionURLPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// ValidateRequest checks a request struct and returns the invalid fields, if any
func ValidateRequest(req any) []FieldError {
	err := requestValidator().Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Name: "body", Reason: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Name: fe.Field(), Reason: humanReason(fe)})
	}
	return out
}

func humanReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "httpurl":
		return "must be a valid URL starting with http:// or https://"
	case "email":
		return "must be a valid email address"
	case "min", "max":
		if fe.Field() == "year" {
			return "must be a valid year (up to 4 digits)"
		}
		return "must be between the allowed bounds (" + fe.Tag() + "=" + fe.Param() + ")"
	default:
		return fe.Error()
	}
}
