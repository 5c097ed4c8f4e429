package services

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/artgallery/server/internal/models"
)

// ApplyFilterAndSort derives the gallery view. It returns a new slice and never
// reorders or modifies artworks.
func ApplyFilterAndSort(artworks []models.Artwork, filter models.FilterConfig, sort models.SortKey) []models.Artwork {
	view := FilterArtworks(artworks, filter)
	SortInPlace(view, sort)
	return view
}

// FilterArtworks returns the artworks matching every non-empty field of filter, in input order
func FilterArtworks(artworks []models.Artwork, filter models.FilterConfig) []models.Artwork {
	m := newMatcher(filter)
	out := make([]models.Artwork, 0, len(artworks))
	for _, a := range artworks {
		if m.matches(a) {
			out = append(out, a)
		}
	}
	return out
}

type matcher struct {
	search string
	artist string
	tags   []string
}

func newMatcher(f models.FilterConfig) matcher {
	return matcher{
		search: strings.ToLower(f.SearchTerm),
		artist: strings.ToLower(f.ArtistName),
		tags:   f.Tags,
	}
}

func (m matcher) matches(a models.Artwork) bool {
	if m.search != "" &&
		!strings.Contains(strings.ToLower(a.Title), m.search) &&
		!strings.Contains(strings.ToLower(a.Artist), m.search) &&
		!strings.Contains(strings.ToLower(a.Description), m.search) {
		return false
	}

	if len(m.tags) > 0 && !slices.ContainsFunc(m.tags, a.HasTag) {
		return false
	}

	if m.artist != "" && !strings.Contains(strings.ToLower(a.Artist), m.artist) {
		return false
	}

	return true
}

// SortInPlace orders artworks by key. Every ordering is stable, so equal elements
// keep their input order; latest only partitions user submissions ahead of catalog items.
func SortInPlace(artworks []models.Artwork, key models.SortKey) {
	switch key {
	case models.SortTitle:
		// Collators are not safe for concurrent use
		c := collate.New(language.English)
		slices.SortStableFunc(artworks, func(a, b models.Artwork) int {
			return c.CompareString(a.Title, b.Title)
		})
	case models.SortArtist:
		c := collate.New(language.English)
		slices.SortStableFunc(artworks, func(a, b models.Artwork) int {
			return c.CompareString(a.Artist, b.Artist)
		})
	case models.SortYear:
		slices.SortStableFunc(artworks, func(a, b models.Artwork) int {
			return a.Year - b.Year
		})
	default:
		slices.SortStableFunc(artworks, func(a, b models.Artwork) int {
			return sourceRank(a) - sourceRank(b)
		})
	}
}

func sourceRank(a models.Artwork) int {
	if a.IsUserSubmission() {
		return 0
	}
	return 1
}

// CollectFacets returns the distinct tags and artists of the collection, collated
func CollectFacets(artworks []models.Artwork) models.Facets {
	tagSet := make(map[string]struct{})
	artistSet := make(map[string]struct{})
	for _, a := range artworks {
		for _, t := range a.Tags {
			if t != "" {
				tagSet[t] = struct{}{}
			}
		}
		if a.Artist != "" {
			artistSet[a.Artist] = struct{}{}
		}
	}

	c := collate.New(language.English)
	return models.Facets{
		Tags:    sortedKeys(tagSet, c),
		Artists: sortedKeys(artistSet, c),
	}
}

func sortedKeys(set map[string]struct{}, c *collate.Collator) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	c.SortStrings(out)
	return out
}
