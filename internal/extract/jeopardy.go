package extract

import (
	"fmt"
	"io"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
)

// Board shape assumed for every regular round. Larger tournament boards are
// silently truncated to this size.
const (
	BoardColumns = 6
	BoardRows    = 5
)

var showTitle = regexp.MustCompile(`Show #(\d+).*aired (\d{4}-\d{2}-\d{2})`)

// RoundLayout describes where a round lives on the page and how its clues are
// valued.
type RoundLayout struct {
	ContainerID string
	CluePrefix  string
	Multiplier  int
}

// The two regular rounds differ only in identifiers and clue values.
var (
	SingleRound = RoundLayout{ContainerID: "jeopardy_round", CluePrefix: "J", Multiplier: 200}
	DoubleRound = RoundLayout{ContainerID: "double_jeopardy_round", CluePrefix: "DJ", Multiplier: 400}
)

// Value returns the face value of a clue on the given 1-based row.
func (l RoundLayout) Value(row int) int {
	return row * l.Multiplier
}

func (l RoundLayout) clueID(col, row int) string {
	return fmt.Sprintf("clue_%s_%d_%d", l.CluePrefix, col, row)
}

// Game builds a JeopardyGame from one game page. Missing rounds, clues, or
// answers leave empty values behind; only an unreadable document is an error.
func Game(gameID string, r io.Reader) (archive.JeopardyGame, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return archive.JeopardyGame{}, fmt.Errorf("parse game html: %w", err)
	}

	game := archive.JeopardyGame{
		GameID:  gameID,
		JRound:  readRound(doc, SingleRound),
		DJRound: readRound(doc, DoubleRound),
		Final:   readFinal(doc),
	}
	if m := showTitle.FindStringSubmatch(doc.Find("title").First().Text()); m != nil {
		game.ShowNumber = m[1]
		game.AirDate = m[2]
	}
	return game, nil
}

func readRound(doc *goquery.Document, layout RoundLayout) archive.Round {
	round := archive.Round{Categories: []string{}, Clues: []archive.ClueCell{}}
	container := doc.Find("#" + layout.ContainerID).First()
	if container.Length() == 0 {
		return round
	}

	container.Find("td.category_name").Each(func(_ int, cat *goquery.Selection) {
		round.Categories = append(round.Categories, NormalizedText(cat))
	})

	for col := 1; col <= BoardColumns; col++ {
		for row := 1; row <= BoardRows; row++ {
			id := layout.clueID(col, row)
			clue := doc.Find("#" + id).First()
			text := NormalizedText(clue)
			if text == "" {
				continue
			}
			round.Clues = append(round.Clues, archive.ClueCell{
				Category:    col - 1,
				Row:         row,
				Value:       layout.Value(row),
				Clue:        text,
				Answer:      correctResponse(doc, id+"_r"),
				DailyDouble: isDailyDouble(clue),
			})
		}
	}
	return round
}

func readFinal(doc *goquery.Document) archive.FinalClue {
	container := doc.Find("#final_jeopardy_round").First()
	if container.Length() == 0 {
		return archive.FinalClue{}
	}
	return archive.FinalClue{
		Category: NormalizedText(container.Find("td.category_name").First()),
		Clue:     NormalizedText(doc.Find("#clue_FJ").First()),
		Answer:   correctResponse(doc, "clue_FJ_r"),
	}
}

// correctResponse reads the marked correct response inside a reveal element.
func correctResponse(doc *goquery.Document, revealID string) string {
	return NormalizedText(doc.Find("#" + revealID).First().Find("em.correct_response").First())
}

func isDailyDouble(clue *goquery.Selection) bool {
	cell := clue.ParentsFiltered("td.clue").First()
	return cell.Find(".clue_value_daily_double").Length() > 0
}
