package job

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/JakeFAU/puzzle-archive/internal/archive"
	"github.com/JakeFAU/puzzle-archive/internal/clock/system"
)

var fixedNow = system.Fixed(time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC))

// MockFetcher mocks the archive.Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

// Fetch satisfies the archive.Fetcher interface for the mock.
func (m *MockFetcher) Fetch(ctx context.Context, req archive.FetchRequest) (archive.FetchResponse, error) {
	args := m.Called(ctx, req.URL)
	resp, _ := args.Get(0).(archive.FetchResponse)
	return resp, args.Error(1)
}

func (m *MockFetcher) serve(url, body string) {
	m.On("Fetch", mock.Anything, url).Return(archive.FetchResponse{
		URL:        url,
		StatusCode: http.StatusOK,
		Body:       []byte(body),
	}, nil).Once()
}

// countingPacer records every URL it is asked to pace.
type countingPacer struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (p *countingPacer) Wait(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.urls = append(p.urls, url)
	return p.err
}

func gamePage(show int, airDate string, clue string) string {
	jRound := ""
	if clue != "" {
		jRound = fmt.Sprintf(`<div id="jeopardy_round"><table class="round">
<tr><td class="category"><table><tr><td class="category_name">CATEGORY</td></tr></table></td></tr>
<tr><td class="clue"><table><tr><td id="clue_J_1_1" class="clue_text">%s</td></tr>
<tr><td id="clue_J_1_1_r" class="clue_text">%s <em class="correct_response">Answer %d</em></td></tr></table></td></tr>
</table></div>`, clue, clue, show)
	}
	return fmt.Sprintf(`<html><head><title>J! Archive - Show #%d, aired %s</title></head><body>%s
<div id="final_jeopardy_round"><table class="final_round"><tr><td class="category_name">FINAL</td></tr>
<tr><td id="clue_FJ" class="clue_text">Final clue %d</td></tr>
<tr><td id="clue_FJ_r"><em class="correct_response">Final answer</em></td></tr></table></div>
</body></html>`, show, airDate, jRound, show)
}

const crosswordPage = `<html><head><script type="application/ld+json">{"author": {"name": "Jane Doe"}, "editor": {"name": "Will Shortz"}}</script></head>
<body><h1 id="PuzTitle">Sample Puzzle</h1>
<table id="PuzTable"><tr>
<td><div class="num">1</div><div class="letter">A</div></td>
<td><div class="letter">B</div></td>
</tr></table>
<div id="ACluesPan"><div class="numclue"><div>1</div><div>First two : <a href="/Finder?w=ab">AB</a></div></div></div>
</body></html>`
