package ingestion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	hash1 := computeHash("test content")
	hash2 := computeHash("different content")

	assert.Len(t, hash1, 64)
	assert.NotEqual(t, hash1, hash2)
	assert.Equal(t, hash1, computeHash("test content"))
}

func TestNewMetadata(t *testing.T) {
	meta := NewMetadata("Go d\u00e9veloppeur", SourceURL)

	assert.Equal(t, SourceURL, meta.Source)
	assert.Equal(t, 14, meta.Chars)
	assert.Equal(t, computeHash("Go d\u00e9veloppeur"), meta.Hash)

	ts, err := time.Parse(time.RFC3339, meta.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestMetadata_JSONOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(&Metadata{Source: SourceStdin, Timestamp: "2024-01-01T00:00:00Z", Hash: "ab", Chars: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"stdin","timestamp":"2024-01-01T00:00:00Z","hash":"ab","chars":2}`, string(data))
}
