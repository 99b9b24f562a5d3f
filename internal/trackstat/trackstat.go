// Package trackstat tracks per-track play/skip counters and a derived
// rating, persisted as a JSON array on shutdown and reloaded on
// startup.
package trackstat

import (
	"os"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Stat is one track's play/skip counters and rating.
type Stat struct {
	TrackID   string  `json:"track_id"`
	PlayCount uint    `json:"play_count"`
	SkipCount uint    `json:"skip_count"`
	Rating    float64 `json:"rating"`
}

func newStat(trackID string) Stat {
	return Stat{TrackID: trackID, Rating: 1.0}
}

// Store holds the in-memory set of per-track stats. It is owned by the
// engine's command-loop goroutine, same as the Catalog.
type Store struct {
	byID map[string]Stat
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byID: make(map[string]Stat)}
}

// Get returns the stat for trackID, or a fresh default (zero counts,
// rating 1.0) if none has been recorded yet.
func (s *Store) Get(trackID string) Stat {
	if st, ok := s.byID[trackID]; ok {
		return st
	}
	return newStat(trackID)
}

// IncreasePlayCount records a full play: play_count increments and
// rating multiplies by 1.1. Returns the updated stat.
func (s *Store) IncreasePlayCount(trackID string) Stat {
	st := s.Get(trackID)
	st.PlayCount++
	st.Rating *= 1.1
	s.byID[trackID] = st
	return st
}

// IncreaseSkipCount records a skip: skip_count increments and rating
// multiplies by 0.9. Returns the updated stat.
func (s *Store) IncreaseSkipCount(trackID string) Stat {
	st := s.Get(trackID)
	st.SkipCount++
	st.Rating *= 0.9
	s.byID[trackID] = st
	return st
}

// All returns every recorded stat, in no particular order.
func (s *Store) All() []Stat {
	out := make([]Stat, 0, len(s.byID))
	for _, st := range s.byID {
		out = append(out, st)
	}
	return out
}

// Load reads stats from filename into a new Store. A missing file, or
// an empty filename, yields an empty Store, not an error.
func Load(filename string) (*Store, error) {
	store := NewStore()
	if filename == "" {
		return store, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, errors.Wrap(err, "failed to read track stat file")
	}

	var stats []Stat
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, errors.Wrap(err, "track stat file must be a json array")
	}

	for _, st := range stats {
		store.byID[st.TrackID] = st
	}

	return store, nil
}

// Save writes every stat in the store to filename as a JSON array.
func Save(store *Store, filename string) error {
	if filename == "" {
		return nil
	}

	data, err := json.Marshal(store.All())
	if err != nil {
		return errors.Wrap(err, "failed to encode track stats")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write track stat file")
	}

	return nil
}
