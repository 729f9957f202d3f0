// Package sink writes extracted records to the flat JSON files consumed by the
// browser viewer.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
)

// AggregateHeader is the first line of the generated puzzles script.
const AggregateHeader = "// Auto-generated by puzzlearchive; all puzzle data for the webapp"

// PuzzleSink saves one JSON document per puzzle date.
type PuzzleSink struct {
	root   string
	hasher archive.Hasher
	logger *zap.Logger
}

// NewPuzzleSink returns a sink rooted at dir.
func NewPuzzleSink(root string, hasher archive.Hasher, logger *zap.Logger) (*PuzzleSink, error) {
	if hasher == nil {
		return nil, fmt.Errorf("hasher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create sink dir %s: %w", root, err)
	}
	return &PuzzleSink{root: root, hasher: hasher, logger: logger}, nil
}

// WritePuzzle writes <root>/<date>.json. It reports false when the file
// already holds identical content and was left untouched.
func (s *PuzzleSink) WritePuzzle(ctx context.Context, puzzle archive.CrosswordPuzzle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context canceled: %w", err)
	}
	if puzzle.Date == "" {
		return false, fmt.Errorf("puzzle date is required")
	}
	payload, err := encodeJSON(puzzle, "  ")
	if err != nil {
		return false, fmt.Errorf("marshal puzzle %s: %w", puzzle.Date, err)
	}
	target := s.puzzlePath(puzzle.Date)

	// #nosec G304 -- target is built from the sink root and a date key.
	if existing, err := os.ReadFile(target); err == nil {
		same, hashErr := s.sameContent(existing, payload)
		if hashErr != nil {
			return false, hashErr
		}
		if same {
			s.logger.Debug("puzzle unchanged", zap.String("date", puzzle.Date))
			return false, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read existing puzzle %s: %w", target, err)
	}

	if err := WriteFileAtomic(target, payload); err != nil {
		return false, fmt.Errorf("write puzzle %s: %w", target, err)
	}
	return true, nil
}

// LoadPuzzles reads every <date>.json under the root in date order.
func (s *PuzzleSink) LoadPuzzles(ctx context.Context) ([]archive.CrosswordPuzzle, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob puzzles: %w", err)
	}
	sort.Strings(paths)

	puzzles := make([]archive.CrosswordPuzzle, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context canceled: %w", err)
		}
		// #nosec G304 -- path comes from globbing the sink root.
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read puzzle %s: %w", path, err)
		}
		var puzzle archive.CrosswordPuzzle
		if err := json.Unmarshal(data, &puzzle); err != nil {
			return nil, fmt.Errorf("decode puzzle %s: %w", path, err)
		}
		if puzzle.Date == "" {
			puzzle.Date = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		puzzles = append(puzzles, puzzle)
	}
	return puzzles, nil
}

// Dates lists the puzzle dates stored under the root, oldest first.
func (s *PuzzleSink) Dates() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob puzzles: %w", err)
	}
	dates := make([]string, 0, len(paths))
	for _, path := range paths {
		dates = append(dates, strings.TrimSuffix(filepath.Base(path), ".json"))
	}
	sort.Strings(dates)
	return dates, nil
}

// ReadPuzzle returns the stored JSON document for date. A missing date yields
// an error wrapping fs.ErrNotExist.
func (s *PuzzleSink) ReadPuzzle(date string) ([]byte, error) {
	if date == "" || strings.ContainsAny(date, `/\`) || strings.Contains(date, "..") {
		return nil, fmt.Errorf("invalid puzzle date %q: %w", date, fs.ErrNotExist)
	}
	// #nosec G304 -- date is checked for path separators above.
	data, err := os.ReadFile(s.puzzlePath(date))
	if err != nil {
		return nil, fmt.Errorf("read puzzle %s: %w", date, err)
	}
	return data, nil
}

func (s *PuzzleSink) puzzlePath(date string) string {
	return filepath.Join(s.root, date+".json")
}

func (s *PuzzleSink) sameContent(a, b []byte) (bool, error) {
	hashA, err := s.hasher.Hash(a)
	if err != nil {
		return false, fmt.Errorf("hash existing puzzle: %w", err)
	}
	hashB, err := s.hasher.Hash(b)
	if err != nil {
		return false, fmt.Errorf("hash new puzzle: %w", err)
	}
	return hashA == hashB, nil
}

// WriteAggregate writes a script that assigns every puzzle, keyed by date, to
// the ALL_PUZZLES constant. Later duplicates of a date replace earlier ones.
func WriteAggregate(path string, puzzles []archive.CrosswordPuzzle) error {
	byDate := make(map[string]archive.CrosswordPuzzle, len(puzzles))
	for _, p := range puzzles {
		byDate[p.Date] = p
	}
	body, err := encodeJSON(byDate, "")
	if err != nil {
		return fmt.Errorf("marshal aggregate: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(AggregateHeader)
	buf.WriteString("\nconst ALL_PUZZLES = ")
	buf.Write(body)
	buf.WriteString(";\n")

	if err := WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write aggregate %s: %w", path, err)
	}
	return nil
}

// SortGames returns a copy of games stable-sorted by air date. Games without
// an air date sort first.
func SortGames(games []archive.JeopardyGame) []archive.JeopardyGame {
	sorted := append([]archive.JeopardyGame(nil), games...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AirDate < sorted[j].AirDate
	})
	return sorted
}

// WriteGames writes games, sorted by air date, as an indented JSON array.
func WriteGames(path string, games []archive.JeopardyGame) error {
	sorted := SortGames(games)
	if sorted == nil {
		sorted = []archive.JeopardyGame{}
	}
	payload, err := encodeJSON(sorted, "  ")
	if err != nil {
		return fmt.Errorf("marshal games: %w", err)
	}
	if err := WriteFileAtomic(path, payload); err != nil {
		return fmt.Errorf("write games %s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// encodeJSON marshals v without escaping <, >, and & so clue text stays
// readable in the output files.
func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
