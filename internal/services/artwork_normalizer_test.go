package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artgallery/server/internal/models"
)

func metRecord() RawRecord {
	return RawRecord{
		Source:         MetCatalogName,
		ID:             "436535",
		Title:          "Wheat Field with Cypresses",
		Artist:         "Vincent van Gogh",
		Culture:        "Dutch",
		ImageURL:       "https://images.metmuseum.org/CRDImages/ep/original/DT1567.jpg",
		Date:           "1889",
		Medium:         "Oil on canvas",
		Dimensions:     "73 x 93.4 cm",
		Classification: "Paintings",
	}
}

func TestNormalizeRecord(t *testing.T) {
	t.Run("maps a complete record", func(t *testing.T) {
		art, ok := NormalizeRecord(metRecord())
		require.True(t, ok)

		assert.Equal(t, "436535", art.ID)
		assert.Equal(t, 1889, art.Year)
		assert.Equal(t, "Dutch", art.Description)
		assert.Equal(t, []string{"Paintings", "Dutch"}, art.Tags)
		assert.Equal(t, models.SourceCatalog, art.Source)
	})

	t.Run("rejects records missing required fields", func(t *testing.T) {
		for name, mutate := range map[string]func(*RawRecord){
			"id":     func(r *RawRecord) { r.ID = "" },
			"title":  func(r *RawRecord) { r.Title = "  " },
			"artist": func(r *RawRecord) { r.Artist = "" },
			"image":  func(r *RawRecord) { r.ImageURL = "" },
			"scheme": func(r *RawRecord) { r.ImageURL = "ftp://x/y.jpg" },
		} {
			rec := metRecord()
			mutate(&rec)
			_, ok := NormalizeRecord(rec)
			assert.False(t, ok, name)
		}
	})

	t.Run("falls back for description and medium", func(t *testing.T) {
		rec := metRecord()
		rec.Culture = ""
		rec.Medium = ""
		art, ok := NormalizeRecord(rec)
		require.True(t, ok)

		assert.Equal(t, "No description available", art.Description)
		assert.Equal(t, "Unknown medium", art.Medium)
		assert.Equal(t, []string{"Paintings"}, art.Tags)
	})

	t.Run("explicit year wins over date", func(t *testing.T) {
		rec := metRecord()
		rec.Year = intPtr(1890)
		art, _ := NormalizeRecord(rec)
		assert.Equal(t, 1890, art.Year)
	})

	t.Run("keeps source tags after taxonomy", func(t *testing.T) {
		rec := metRecord()
		rec.Tags = []string{"", "Landscape"}
		art, _ := NormalizeRecord(rec)
		assert.Equal(t, []string{"Paintings", "Dutch", "Landscape"}, art.Tags)
	})
}

func TestParseLeadingYear(t *testing.T) {
	cases := map[string]int{
		"1889":         1889,
		"1890–95":      1890,
		" 1665/1667":   1665,
		"ca. 1890":     0,
		"":             0,
		"19th century": 19,
		"+1500":        1500,
		"-500":         0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLeadingYear(in), in)
	}
}

func TestNormalizeRecordsDropsIncomplete(t *testing.T) {
	good := metRecord()
	bad := metRecord()
	bad.Title = ""

	out := NormalizeRecords([]RawRecord{good, bad, good})
	assert.Len(t, out, 2)
}
