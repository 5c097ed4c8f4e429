package services

import (
	"strings"
	"unicode"

	"github.com/artgallery/server/internal/models"
)

const (
	noDescription = "No description available"
	unknownMedium = "Unknown medium"
)

// RawRecord is one artwork as returned by an upstream catalog, before normalization.
// Year, when set, wins over parsing Date.
type RawRecord struct {
	Source         string
	ID             string
	Title          string
	Artist         string
	Description    string
	Culture        string
	ImageURL       string
	Date           string
	Year           *int
	Medium         string
	Dimensions     string
	Classification string
	Tags           []string
}

// NormalizeRecord maps a raw record to an Artwork. It reports false for records without
// an id, a title, an artist or an http(s) image; those are skipped, not errors.
func NormalizeRecord(rec RawRecord) (models.Artwork, bool) {
	id := strings.TrimSpace(rec.ID)
	title := strings.TrimSpace(rec.Title)
	artist := strings.TrimSpace(rec.Artist)
	image := strings.TrimSpace(rec.ImageURL)

	if id == "" || title == "" || artist == "" || !models.IsValidImageURL(image) {
		return models.Artwork{}, false
	}

	description := strings.TrimSpace(rec.Description)
	if description == "" {
		description = strings.TrimSpace(rec.Culture)
	}
	if description == "" {
		description = noDescription
	}

	medium := strings.TrimSpace(rec.Medium)
	if medium == "" {
		medium = unknownMedium
	}

	year := parseLeadingYear(rec.Date)
	if rec.Year != nil {
		year = *rec.Year
	}
	if year < 0 {
		year = 0
	}

	tags := make([]string, 0, 2+len(rec.Tags))
	tags = append(tags, rec.Classification, rec.Culture)
	tags = append(tags, rec.Tags...)

	return models.Artwork{
		ID:          id,
		Title:       title,
		Artist:      artist,
		Description: description,
		ImageURL:    image,
		Year:        year,
		Medium:      medium,
		Dimensions:  strings.TrimSpace(rec.Dimensions),
		Tags:        models.CleanTags(tags),
		Source:      models.SourceCatalog,
	}, true
}

// NormalizeRecords normalizes a page and drops the records that do not qualify
func NormalizeRecords(recs []RawRecord) []models.Artwork {
	out := make([]models.Artwork, 0, len(recs))
	for _, rec := range recs {
		if art, ok := NormalizeRecord(rec); ok {
			out = append(out, art)
		}
	}
	return out
}

// parseLeadingYear reads the integer at the start of a free-form date such as
// "1890–95" or "1665/1667". Anything that does not start with a number is 0.
func parseLeadingYear(date string) int {
	s := strings.TrimLeftFunc(date, unicode.IsSpace)
	s = strings.TrimPrefix(s, "+")

	year := 0
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		year = year*10 + int(r-'0')
		digits++
		// Past any calendar year we could display
		if digits > 6 {
			return 0
		}
	}
	return year
}
