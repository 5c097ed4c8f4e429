package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserArtwork(t *testing.T) {
	t.Run("creates user submission with the given id", func(t *testing.T) {
		art := NewUserArtwork("user-1", ArtworkInput{
			Title:       "T",
			Artist:      "A",
			Description: "D",
			ImageURL:    "https://x/y.jpg",
			Year:        1999,
			Tags:        []string{"Modern"},
		})

		assert.Equal(t, "user-1", art.ID)
		assert.Equal(t, SourceUser, art.Source)
		assert.True(t, art.IsUserSubmission())
		assert.Equal(t, []string{"Modern"}, art.Tags)
	})

	t.Run("drops empty tags", func(t *testing.T) {
		art := NewUserArtwork("user-2", ArtworkInput{Tags: []string{"", "  ", "Abstract", ""}})
		assert.Equal(t, []string{"Abstract"}, art.Tags)
	})

	t.Run("nil tags become an empty list", func(t *testing.T) {
		art := NewUserArtwork("user-3", ArtworkInput{})
		assert.NotNil(t, art.Tags)
		assert.Empty(t, art.Tags)
	})
}

func TestSourceUnmarshal(t *testing.T) {
	t.Run("accepts legacy api source as catalog", func(t *testing.T) {
		var art Artwork
		require.NoError(t, json.Unmarshal([]byte(`{"id":"h1","source":"api"}`), &art))
		assert.Equal(t, SourceCatalog, art.Source)
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		var art Artwork
		assert.Error(t, json.Unmarshal([]byte(`{"id":"h1","source":"museum"}`), &art))
	})

	t.Run("round trips user source", func(t *testing.T) {
		data, err := json.Marshal(Artwork{ID: "user-1", Source: SourceUser})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"source":"user"`)
	})
}

func TestCollectionURL(t *testing.T) {
	assert.Equal(t, MetCollectionURL+"436535", Artwork{ID: "436535", Source: SourceCatalog}.CollectionURL())
	assert.Empty(t, Artwork{ID: "h1", Source: SourceCatalog}.CollectionURL())
	assert.Empty(t, Artwork{ID: "user-1", Source: SourceUser}.CollectionURL())
}

func TestCloneDoesNotShareTags(t *testing.T) {
	orig := Artwork{ID: "1", Tags: []string{"Baroque"}}
	cp := orig.Clone()
	cp.Tags[0] = "Changed"
	assert.Equal(t, "Baroque", orig.Tags[0])
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"Modern", "Abstract"}, SplitTags("Modern, ,Abstract,"))
	assert.Empty(t, SplitTags("   "))
}

func TestIsValidImageURL(t *testing.T) {
	assert.True(t, IsValidImageURL("https://images.example.com/a.jpg"))
	assert.True(t, IsValidImageURL("http://x/y"))
	assert.False(t, IsValidImageURL("ftp://x/y"))
	assert.False(t, IsValidImageURL("/local/path.jpg"))
}
