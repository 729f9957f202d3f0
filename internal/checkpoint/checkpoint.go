// Package checkpoint persists trivia scrape progress so an interrupted run can
// resume without refetching completed games.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/sink"
)

// State is the on-disk checkpoint. CompletedIDs includes games that were
// skipped for having no clues, so Games may be shorter.
type State struct {
	CompletedIDs []int                  `json:"completed_ids"`
	Games        []archive.JeopardyGame `json:"games"`

	completed map[int]struct{}
}

// New returns an empty State.
func New() *State {
	return &State{
		CompletedIDs: []int{},
		Games:        []archive.JeopardyGame{},
		completed:    make(map[int]struct{}),
	}
}

// Load reads the checkpoint at path. A missing file yields an empty State.
func Load(path string) (*State, error) {
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", path, err)
	}

	state := New()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	if state.CompletedIDs == nil {
		state.CompletedIDs = []int{}
	}
	if state.Games == nil {
		state.Games = []archive.JeopardyGame{}
	}
	for _, id := range state.CompletedIDs {
		state.completed[id] = struct{}{}
	}
	return state, nil
}

// IsCompleted reports whether id has been processed.
func (s *State) IsCompleted(id int) bool {
	_, ok := s.completed[id]
	return ok
}

// MarkCompleted records id as processed. Passing a game keeps it in the
// output; nil marks the id without keeping anything.
func (s *State) MarkCompleted(id int, game *archive.JeopardyGame) {
	if s.IsCompleted(id) {
		return
	}
	s.completed[id] = struct{}{}
	s.CompletedIDs = append(s.CompletedIDs, id)
	if game != nil {
		s.Games = append(s.Games, *game)
	}
}

// Completed returns the number of processed ids.
func (s *State) Completed() int {
	return len(s.completed)
}

// Save writes the checkpoint to path atomically with completed ids sorted.
func (s *State) Save(path string) error {
	sort.Ints(s.CompletedIDs)
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := sink.WriteFileAtomic(path, payload); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", path, err)
	}
	return nil
}
