package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebac/spotihifi/internal/catalog"
)

func seedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	var pl []catalog.TrackInput
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		pl = append(pl, catalog.TrackInput{TrackID: id, Available: true})
	}
	c.PlaylistTracksAdded("PL", pl[:4], 0)
	c.PlaylistTracksAdded("Other", pl[4:], 0)
	return c
}

func TestRefillReachesTargetLength(t *testing.T) {
	c := seedCatalog(t)
	s := New()
	s.Refill(c)
	assert.Equal(t, 5, s.Len())
}

func TestFilterPlaylistOnlyYieldsMembers(t *testing.T) {
	c := seedCatalog(t)
	s := New()
	s.SetFilter(c, Playlist("PL"))

	require.True(t, s.Len() > 0)
	for s.Len() > 0 {
		id, ok := s.Next()
		require.True(t, ok)
		tr, ok := c.Track(id)
		require.True(t, ok)
		assert.True(t, tr.InPlaylist("PL"), "selector must only surface ids belonging to the filtered playlist")
	}
}

func TestFilterUnratedOnlyYieldsUnratedTracks(t *testing.T) {
	c := seedCatalog(t)
	c.UpdateRating("a", 1.21)

	s := New()
	s.SetFilter(c, Unrated())

	for s.Len() > 0 {
		id, ok := s.Next()
		require.True(t, ok)
		tr, _ := c.Track(id)
		assert.Equal(t, catalog.UnratedRating, tr.Rating)
	}
}

func TestRefillNoopAboveThreshold(t *testing.T) {
	c := seedCatalog(t)
	s := New()
	s.Refill(c)
	before := append([]string(nil), s.queue...)

	s.Refill(c)
	assert.Equal(t, before, s.queue, "refill should be a no-op while queue length is above the threshold")
}

func TestSetFilterClearsAndRefills(t *testing.T) {
	c := seedCatalog(t)
	s := New()
	s.Refill(c)
	require.Equal(t, 5, s.Len())

	s.SetFilter(c, Playlist("PL"))
	for s.Len() > 0 {
		id, _ := s.Next()
		tr, _ := c.Track(id)
		assert.True(t, tr.InPlaylist("PL"))
	}
}
