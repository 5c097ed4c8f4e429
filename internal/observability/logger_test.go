package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("test-service", LevelWarn)
	logger.SetOutput(&buf)

	logger.Info("hidden")
	logger.Warnf("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "shown 1")
	assert.Contains(t, out, "test-service")
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger("test-service", LevelDebug)
	base.SetOutput(&buf)

	base.WithField("b", 2).WithFields(map[string]any{"a": 1}).WithError(errors.New("boom")).Info("msg")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "msg a=1 b=2 error=boom"), line)

	buf.Reset()
	base.Info("plain")
	assert.NotContains(t, buf.String(), "a=1")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}

func TestGalleryMetricsNilSafe(t *testing.T) {
	var m *GalleryMetrics
	assert.NotPanics(t, func() {
		m.RecordFetch(t.Context(), 3, true)
		m.RecordFavoriteToggle(t.Context(), true)
		m.RecordSubmission(t.Context())
		m.RecordPersistenceError(t.Context(), "art_gallery_artworks")
	})
}
