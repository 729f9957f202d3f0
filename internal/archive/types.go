// Package archive defines the records and collaborator interfaces shared by the
// crossword and trivia pipelines.
package archive

import (
	"errors"
	"net/http"
	"time"
)

// ErrNotExtractable marks a page that lacks the structural anchors required to
// build a complete record. Callers should reject the page wholesale.
var ErrNotExtractable = errors.New("page not extractable")

// ErrPageNotFound is returned by PageStore implementations for unknown keys.
var ErrPageNotFound = errors.New("page not found")

// BlockedCell is the grid value used for black squares and unreadable letters.
const BlockedCell = "."

// Dimensions is the size of a crossword grid.
type Dimensions struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Clue is one numbered entry in the across or down list.
type Clue struct {
	Number int    `json:"number"`
	Text   string `json:"clue"`
	Answer string `json:"answer"`
	// Row and Col are nil when no grid cell carries Number.
	Row *int `json:"row,omitempty"`
	Col *int `json:"col,omitempty"`
}

// ClueLists holds both clue directions in page order.
type ClueLists struct {
	Across []Clue `json:"across"`
	Down   []Clue `json:"down"`
}

// CrosswordPuzzle is the normalized record for one daily puzzle page.
type CrosswordPuzzle struct {
	Date        string     `json:"date"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Editor      string     `json:"editor"`
	Dimensions  Dimensions `json:"dimensions"`
	Grid        [][]string `json:"grid"`
	CellNumbers [][]int    `json:"cellNumbers"`
	Clues       ClueLists  `json:"clues"`
}

// ClueCell is a single clue on a trivia board.
type ClueCell struct {
	Category    int    `json:"cat"`
	Row         int    `json:"row"`
	Value       int    `json:"value"`
	Clue        string `json:"clue"`
	Answer      string `json:"answer"`
	DailyDouble bool   `json:"dailyDouble,omitempty"`
}

// Round is one board of a trivia game.
type Round struct {
	Categories []string   `json:"categories"`
	Clues      []ClueCell `json:"clues"`
}

// FinalClue is the single wagering clue at the end of a game.
type FinalClue struct {
	Category string `json:"category"`
	Clue     string `json:"clue"`
	Answer   string `json:"answer"`
}

// JeopardyGame is the normalized record for one trivia game page.
type JeopardyGame struct {
	GameID     string    `json:"gameId"`
	ShowNumber string    `json:"showNumber"`
	AirDate    string    `json:"airDate"`
	JRound     Round     `json:"jRound"`
	DJRound    Round     `json:"djRound"`
	Final      FinalClue `json:"fj"`
}

// ClueCount totals the clues present in both boards plus the final clue.
func (g JeopardyGame) ClueCount() int {
	count := len(g.JRound.Clues) + len(g.DJRound.Clues)
	if g.Final.Clue != "" {
		count++
	}
	return count
}

// FetchRequest captures everything needed to fetch a page.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
