package extract

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
)

const (
	acrossPanelID   = "ACluesPan"
	downPanelID     = "DCluesPan"
	creditsGridID   = "CPHContent_AEGrid"
	authorLabel     = "Author:"
	editorLabel     = "Editor:"
	answerParameter = "w"
)

// trailingColon matches the " :" separator left behind once the answer link
// is removed from a clue body.
var trailingColon = regexp.MustCompile(`\s*:\s*$`)

type cellPos struct {
	row int
	col int
}

// Crossword builds a CrosswordPuzzle from one puzzle page. Pages missing the
// puzzle table, with an empty or ragged grid, or with no clues in either
// direction are rejected with an error wrapping archive.ErrNotExtractable.
func Crossword(date string, r io.Reader) (archive.CrosswordPuzzle, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return archive.CrosswordPuzzle{}, fmt.Errorf("parse crossword html: %w", err)
	}

	table := doc.Find("table#PuzTable").First()
	if table.Length() == 0 {
		return archive.CrosswordPuzzle{}, fmt.Errorf("%w: puzzle table missing", archive.ErrNotExtractable)
	}
	grid, numbers := readGrid(table)
	if len(grid) == 0 {
		return archive.CrosswordPuzzle{}, fmt.Errorf("%w: puzzle grid empty", archive.ErrNotExtractable)
	}
	cols := len(grid[0])
	for i, row := range grid {
		if len(row) != cols {
			return archive.CrosswordPuzzle{}, fmt.Errorf(
				"%w: grid row %d has %d cells, want %d", archive.ErrNotExtractable, i, len(row), cols,
			)
		}
	}

	across := readClues(doc, acrossPanelID)
	down := readClues(doc, downPanelID)
	if len(across) == 0 && len(down) == 0 {
		return archive.CrosswordPuzzle{}, fmt.Errorf("%w: no clues found", archive.ErrNotExtractable)
	}

	positions := numberPositions(numbers)
	placeClues(across, positions)
	placeClues(down, positions)

	author, editor := readCredits(doc)
	return archive.CrosswordPuzzle{
		Date:        date,
		Title:       NormalizedText(doc.Find("h1#PuzTitle").First()),
		Author:      author,
		Editor:      editor,
		Dimensions:  archive.Dimensions{Rows: len(grid), Cols: cols},
		Grid:        grid,
		CellNumbers: numbers,
		Clues:       archive.ClueLists{Across: across, Down: down},
	}, nil
}

func readGrid(table *goquery.Selection) ([][]string, [][]int) {
	var (
		grid    [][]string
		numbers [][]int
	)
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		letters := make([]string, 0, cells.Length())
		nums := make([]int, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			if isBlocked(td) {
				letters = append(letters, archive.BlockedCell)
				nums = append(nums, 0)
				return
			}
			letter := NormalizedText(td.Find("div.letter").First())
			if letter == "" {
				letter = archive.BlockedCell
			}
			letters = append(letters, letter)
			nums = append(nums, cellNumber(NormalizedText(td.Find("div.num").First())))
		})
		grid = append(grid, letters)
		numbers = append(numbers, nums)
	})
	return grid, numbers
}

// isBlocked reports whether a cell is a black square. Either the marker class
// or an inline background fill is enough.
func isBlocked(td *goquery.Selection) bool {
	if td.HasClass("black") {
		return true
	}
	style, ok := td.Attr("style")
	return ok && strings.Contains(strings.ToLower(style), "background")
}

func cellNumber(text string) int {
	if !isDigits(text) {
		return 0
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

// readClues consumes the clue panel's div children two at a time: a number
// label followed by the clue body. A trailing unpaired child is ignored.
func readClues(doc *goquery.Document, panelID string) []archive.Clue {
	children := doc.Find("div#" + panelID).First().
		Find("div.numclue").First().
		ChildrenFiltered("div")

	clues := make([]archive.Clue, 0, children.Length()/2)
	for i := 0; i+1 < children.Length(); i += 2 {
		label := NormalizedText(children.Eq(i))
		if !isDigits(label) {
			continue
		}
		number, err := strconv.Atoi(label)
		if err != nil {
			continue
		}
		body := children.Eq(i + 1)
		answer := takeAnswer(body)
		clues = append(clues, archive.Clue{
			Number: number,
			Text:   trailingColon.ReplaceAllString(NormalizedText(body), ""),
			Answer: answer,
		})
	}
	return clues
}

// takeAnswer finds the answer-finder link inside a clue body, removes it from
// the document, and returns the answer it encodes.
func takeAnswer(body *goquery.Selection) string {
	var (
		answer string
		link   *goquery.Selection
	)
	body.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		raw, ok := answerFromHref(href)
		if !ok {
			return true
		}
		answer = normalizeAnswer(raw)
		link = a
		return false
	})
	if link != nil {
		link.Remove()
	}
	return answer
}

func answerFromHref(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), "/finder") {
		return "", false
	}
	values := u.Query()
	if !values.Has(answerParameter) {
		return "", false
	}
	return values.Get(answerParameter), true
}

func normalizeAnswer(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// numberPositions maps each clue number to the first cell carrying it, in
// reading order.
func numberPositions(numbers [][]int) map[int]cellPos {
	positions := make(map[int]cellPos)
	for r, row := range numbers {
		for c, n := range row {
			if n <= 0 {
				continue
			}
			if _, seen := positions[n]; !seen {
				positions[n] = cellPos{row: r, col: c}
			}
		}
	}
	return positions
}

func placeClues(clues []archive.Clue, positions map[int]cellPos) {
	for i := range clues {
		pos, ok := positions[clues[i].Number]
		if !ok {
			continue
		}
		row, col := pos.row, pos.col
		clues[i].Row = &row
		clues[i].Col = &col
	}
}

// readCredits prefers the page's JSON-LD block and fills whatever it lacks
// from the visible label/value grid.
func readCredits(doc *goquery.Document) (string, string) {
	var author, editor string
	if block := doc.Find(`script[type="application/ld+json"]`).First(); block.Length() > 0 {
		author, editor = structuredCredits(block.Text())
	}
	if author != "" && editor != "" {
		return author, editor
	}
	labelAuthor, labelEditor := labelledCredits(doc)
	if author == "" {
		author = labelAuthor
	}
	if editor == "" {
		editor = labelEditor
	}
	return author, editor
}

func structuredCredits(raw string) (string, string) {
	var decoded any
	if err := json5.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err != nil {
		return "", ""
	}
	var candidates []map[string]any
	switch v := decoded.(type) {
	case map[string]any:
		candidates = append(candidates, v)
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				candidates = append(candidates, m)
			}
		}
	}
	for _, ld := range candidates {
		author, editor := personName(ld["author"]), personName(ld["editor"])
		if author != "" || editor != "" {
			return author, editor
		}
	}
	return "", ""
}

func personName(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		name, _ := t["name"].(string)
		return strings.TrimSpace(name)
	case []any:
		names := make([]string, 0, len(t))
		for _, item := range t {
			if name := personName(item); name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, ", ")
	default:
		return ""
	}
}

func labelledCredits(doc *goquery.Document) (string, string) {
	var author, editor string
	divs := doc.Find("div#" + creditsGridID).First().Find("div")
	for i := 0; i+1 < divs.Length(); i++ {
		switch NormalizedText(divs.Eq(i)) {
		case authorLabel:
			author = NormalizedText(divs.Eq(i + 1))
		case editorLabel:
			editor = NormalizedText(divs.Eq(i + 1))
		}
	}
	return author, editor
}
