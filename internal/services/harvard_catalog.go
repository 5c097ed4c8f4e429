package services

import (
	"context"

	"github.com/artgallery/server/internal/observability"
)

// HarvardCatalogName is the source name of the Harvard Art Museums catalog
const HarvardCatalogName = "harvard"

// HarvardCatalog serves a fixed set of records in place of the Harvard Art Museums API,
// which needs a per-deployment key.
type HarvardCatalog struct {
	records []RawRecord
}

// NewHarvardCatalog creates the simulated Harvard source
func NewHarvardCatalog() *HarvardCatalog {
	return &HarvardCatalog{records: harvardRecords()}
}

func (c *HarvardCatalog) Name() string { return HarvardCatalogName }

// Fetch returns window [(page-1)*pageSize, page*pageSize) of the fixed records
func (c *HarvardCatalog) Fetch(ctx context.Context, page, pageSize int) ([]RawRecord, error) {
	_, span := observability.StartCatalogSpan(ctx, HarvardCatalogName, page, pageSize)
	defer span.End()

	out := []RawRecord{}
	if page < 1 || pageSize <= 0 {
		return out, nil
	}
	start := (page - 1) * pageSize
	if start >= len(c.records) {
		return out, nil
	}
	end := min(start+pageSize, len(c.records))
	for _, rec := range c.records[start:end] {
		rec.Tags = append([]string(nil), rec.Tags...)
		out = append(out, rec)
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

func harvardRecords() []RawRecord {
	return []RawRecord{
		{
			Source:      HarvardCatalogName,
			ID:          "h1",
			Title:       "Water Lilies",
			Artist:      "Claude Monet",
			Description: "A stunning depiction of water lilies in Monet's garden.",
			ImageURL:    "https://images.pexels.com/photos/889839/pexels-photo-889839.jpeg",
			Year:        intPtr(1919),
			Medium:      "Oil on canvas",
			Dimensions:  "100cm x 200cm",
			Tags:        []string{"Impressionism", "Landscape"},
		},
		{
			Source:      HarvardCatalogName,
			ID:          "h2",
			Title:       "Starry Night",
			Artist:      "Vincent van Gogh",
			Description: "One of van Gogh's most famous works, painted during his stay at the asylum in Saint-Rémy.",
			ImageURL:    "https://images.pexels.com/photos/1193743/pexels-photo-1193743.jpeg",
			Year:        intPtr(1889),
			Medium:      "Oil on canvas",
			Dimensions:  "73.7cm x 92.1cm",
			Tags:        []string{"Post-Impressionism", "Landscape"},
		},
		{
			Source:      HarvardCatalogName,
			ID:          "h3",
			Title:       "The Persistence of Memory",
			Artist:      "Salvador Dalí",
			Description: "Famous surrealist painting featuring melting clocks on a dreamlike landscape.",
			ImageURL:    "https://images.pexels.com/photos/3246665/pexels-photo-3246665.jpeg",
			Year:        intPtr(1931),
			Medium:      "Oil on canvas",
			Dimensions:  "24cm x 33cm",
			Tags:        []string{"Surrealism"},
		},
		{
			Source:      HarvardCatalogName,
			ID:          "h4",
			Title:       "Girl with a Pearl Earring",
			Artist:      "Johannes Vermeer",
			Description: "A famous portrait painting featuring a girl wearing an exotic dress and a pearl earring.",
			ImageURL:    "https://images.pexels.com/photos/4622976/pexels-photo-4622976.jpeg",
			Year:        intPtr(1665),
			Medium:      "Oil on canvas",
			Dimensions:  "44cm x 39cm",
			Tags:        []string{"Baroque", "Portrait"},
		},
		{
			Source:      HarvardCatalogName,
			ID:          "h5",
			Title:       "The Night Watch",
			Artist:      "Rembrandt",
			Description: "A group portrait of a civic guard company, notable for its dramatic use of light and shadow.",
			ImageURL:    "https://images.pexels.com/photos/2770933/pexels-photo-2770933.jpeg",
			Year:        intPtr(1642),
			Medium:      "Oil on canvas",
			Dimensions:  "363cm x 437cm",
			Tags:        []string{"Baroque", "Group portrait"},
		},
	}
}
