package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Source identifies where an artwork came from
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceUser    Source = "user"

	// legacySourceAPI is how older persisted collections tagged catalog items
	legacySourceAPI = "api"
)

// UserIDPrefix is reserved for ids of user submissions so they never collide with catalog ids
const UserIDPrefix = "user-"

// MetCollectionURL is the public object page for Met catalog items
const MetCollectionURL = "https://www.metmuseum.org/art/collection/search/"

var imageURLPattern = regexp.MustCompile(`^https?://`)

// UnmarshalText accepts the legacy "api" value as a catalog source
func (s *Source) UnmarshalText(text []byte) error {
	switch v := string(text); v {
	case string(SourceCatalog), legacySourceAPI:
		*s = SourceCatalog
	case string(SourceUser):
		*s = SourceUser
	default:
		return fmt.Errorf("unknown artwork source %q", v)
	}
	return nil
}

// Artwork is a single gallery entry. Year 0 means unknown.
type Artwork struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Year        int      `json:"year"`
	Medium      string   `json:"medium"`
	Dimensions  string   `json:"dimensions,omitempty"`
	Tags        []string `json:"tags"`
	Source      Source   `json:"source"`
}

// ArtworkInput is the caller-validated data of a new submission
type ArtworkInput struct {
	Title       string
	Artist      string
	Description string
	ImageURL    string
	Year        int
	Medium      string
	Dimensions  string
	Tags        []string
}

// NewUserArtwork builds a user submission with the given id. No validation is done here.
func NewUserArtwork(id string, in ArtworkInput) Artwork {
	return Artwork{
		ID:          id,
		Title:       in.Title,
		Artist:      in.Artist,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Year:        in.Year,
		Medium:      in.Medium,
		Dimensions:  in.Dimensions,
		Tags:        CleanTags(in.Tags),
		Source:      SourceUser,
	}
}

// IsUserSubmission reports whether the artwork was submitted on this client
func (a Artwork) IsUserSubmission() bool {
	return a.Source == SourceUser
}

// HasTag reports whether the artwork carries exactly the given tag
func (a Artwork) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CollectionURL returns the "view in collection" link, empty for user submissions
// and catalogs without a public object page.
func (a Artwork) CollectionURL() string {
	if a.Source != SourceCatalog || a.ID == "" {
		return ""
	}
	for _, r := range a.ID {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return MetCollectionURL + a.ID
}

// Clone returns a copy that shares no slices with the receiver
func (a Artwork) Clone() Artwork {
	if a.Tags != nil {
		a.Tags = append([]string(nil), a.Tags...)
	}
	return a
}

// IsValidImageURL reports whether the url is an http or https url
func IsValidImageURL(url string) bool {
	return imageURLPattern.MatchString(url)
}

// CleanTags trims tags and drops empty entries, keeping order
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitTags parses a comma-separated tag list as entered in the submission form
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	return CleanTags(strings.Split(raw, ","))
}

// Errors
type GalleryError struct {
	Message string
}

func (e GalleryError) Error() string {
	return e.Message
}

var (
	ErrArtworkNotFound   = GalleryError{"artwork not found"}
	ErrFetchInProgress   = GalleryError{"a catalog fetch is already in progress"}
	ErrInvalidSortKey    = GalleryError{"sort key must be one of title, artist, year, latest"}
	ErrNotUserSubmission = GalleryError{"only user submissions can be removed"}
	ErrNotAuthenticated  = GalleryError{"login required"}
	ErrInvalidTheme      = GalleryError{"theme must be light or dark"}
)
