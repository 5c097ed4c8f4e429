package models

import "strings"

// SortKey selects the ordering of the derived gallery view
type SortKey string

const (
	SortTitle  SortKey = "title"
	SortArtist SortKey = "artist"
	SortYear   SortKey = "year"
	SortLatest SortKey = "latest"
)

// DefaultSort is used until the caller picks another ordering
const DefaultSort = SortLatest

// ParseSortKey validates a sort key coming from a request
func ParseSortKey(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case SortTitle, SortArtist, SortYear, SortLatest:
		return key, nil
	default:
		return "", ErrInvalidSortKey
	}
}

// FilterConfig is the active filter. Empty fields are no constraint.
type FilterConfig struct {
	SearchTerm string   `json:"searchTerm"`
	Tags       []string `json:"tags"`
	ArtistName string   `json:"artistName"`
}

// IsEmpty reports whether the filter constrains nothing
func (f FilterConfig) IsEmpty() bool {
	return f.SearchTerm == "" && len(f.Tags) == 0 && f.ArtistName == ""
}

// Clone returns a copy that shares no slices with the receiver
func (f FilterConfig) Clone() FilterConfig {
	f.Tags = append([]string{}, f.Tags...)
	return f
}

// FilterUpdate is a partial filter; nil fields keep their current value
type FilterUpdate struct {
	SearchTerm *string   `json:"searchTerm,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	ArtistName *string   `json:"artistName,omitempty"`
}

// Apply merges the update into f and returns the result
func (u FilterUpdate) Apply(f FilterConfig) FilterConfig {
	merged := f.Clone()
	if u.SearchTerm != nil {
		merged.SearchTerm = *u.SearchTerm
	}
	if u.Tags != nil {
		merged.Tags = CleanTags(*u.Tags)
	}
	if u.ArtistName != nil {
		merged.ArtistName = *u.ArtistName
	}
	return merged
}

// IsEmpty reports whether the update touches no field
func (u FilterUpdate) IsEmpty() bool {
	return u.SearchTerm == nil && u.Tags == nil && u.ArtistName == nil
}

// FetchStatus is the pagination state machine of the gallery
type FetchStatus string

const (
	StatusIdle    FetchStatus = "idle"
	StatusLoading FetchStatus = "loading"
	StatusError   FetchStatus = "error"
)

// FetchFailedMessage is the user-visible message recorded on a failed fetch
const FetchFailedMessage = "Failed to fetch artworks"

// GalleryState is a point-in-time snapshot of the gallery store
type GalleryState struct {
	Artworks       []Artwork    `json:"artworks"`
	View           []Artwork    `json:"filteredArtworks"`
	Favorites      []string     `json:"favorites"`
	Filter         FilterConfig `json:"filter"`
	Sort           SortKey      `json:"sort"`
	Cursor         int          `json:"cursor"`
	Status         FetchStatus  `json:"status"`
	Error          string       `json:"error,omitempty"`
	CurrentArtwork *Artwork     `json:"currentArtwork,omitempty"`
}

// Loading mirrors the boolean loading flag clients expect
func (s GalleryState) Loading() bool {
	return s.Status == StatusLoading
}

// Facets lists the distinct values available for filtering
type Facets struct {
	Tags    []string `json:"tags"`
	Artists []string `json:"artists"`
}
