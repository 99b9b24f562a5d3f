package trackstat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncreasePlayCountMultipliesRating(t *testing.T) {
	s := NewStore()
	st := s.IncreasePlayCount("t1")
	assert.Equal(t, uint(1), st.PlayCount)
	assert.InDelta(t, 1.1, st.Rating, 1e-9)

	st = s.IncreasePlayCount("t1")
	assert.Equal(t, uint(2), st.PlayCount)
	assert.InDelta(t, 1.21, st.Rating, 1e-9)
}

func TestIncreaseSkipCountMultipliesRating(t *testing.T) {
	s := NewStore()
	before := s.Get("t1").Rating
	st := s.IncreaseSkipCount("t1")
	assert.Equal(t, uint(1), st.SkipCount)
	assert.InDelta(t, before*0.9, st.Rating, 1e-9)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Empty(t, s.All())
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")

	s := NewStore()
	s.IncreasePlayCount("t1")
	s.IncreaseSkipCount("t1")
	s.IncreasePlayCount("t2")

	require.NoError(t, Save(s, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.ElementsMatch(t, s.All(), loaded.All())
}

func TestSaveNoFilenameIsNoop(t *testing.T) {
	s := NewStore()
	s.IncreasePlayCount("t1")
	assert.NoError(t, Save(s, ""))
}
