package picker

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rivo/uniseg"

	"github.com/dshills/quickmatch"
)

// Selection outcomes.
var (
	// ErrAborted means the user backed out (escape or ctrl-c).
	ErrAborted = errors.New("selection aborted")

	// ErrNoMatch means enter was pressed with nothing to select.
	ErrNoMatch = errors.New("nothing matched")
)

// Searcher ranks items against an abbreviation in the background and
// delivers results to a callback. quickmatch.StreamingRanker satisfies
// it; tests substitute a synchronous fake.
type Searcher interface {
	Search(abbr string, items []quickmatch.Item, limit int, callback func([]quickmatch.Ranked))
	Cancel()
}

// Options configures a Picker.
type Options struct {
	// Prompt is drawn before the query. Defaults to "> ".
	Prompt string

	// Height caps the rows used. 0 means the full screen.
	Height int

	// ShowScores adds a score column before each candidate.
	ShowScores bool

	// Theme selects the styles. The zero Theme means DefaultTheme.
	Theme Theme
}

// Picker is the interactive selector: a query line, a counter, and a
// scrollable ranked list. All state changes happen on the Run goroutine;
// async rank results arrive through a pending buffer and a posted
// refresh event.
type Picker struct {
	screen   Screen
	searcher Searcher
	items    []quickmatch.Item
	opts     Options

	query    queryLine
	results  []quickmatch.Ranked
	selected int
	offset   int

	mu         sync.Mutex
	pending    []quickmatch.Ranked
	hasPending bool
}

// New creates a picker over items. The screen is not initialized until
// Run.
func New(screen Screen, searcher Searcher, items []quickmatch.Item, opts Options) *Picker {
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	if opts.Theme == (Theme{}) {
		opts.Theme = DefaultTheme()
	}
	return &Picker{
		screen:   screen,
		searcher: searcher,
		items:    items,
		opts:     opts,
	}
}

// Run drives the picker until the user selects or aborts. It owns the
// screen for its duration.
func (p *Picker) Run() (quickmatch.Ranked, error) {
	if err := p.screen.Init(); err != nil {
		return quickmatch.Ranked{}, fmt.Errorf("screen init: %w", err)
	}
	defer p.screen.Fini()
	defer p.searcher.Cancel()

	p.search()

	for {
		p.applyPending()
		p.render()

		ev := p.screen.PollEvent()
		switch ev.Type {
		case EventNone:
			return quickmatch.Ranked{}, ErrAborted
		case EventResize, EventRefresh:
			// Next render picks up the new size or results.
		case EventKey:
			if done, res, err := p.handleKey(ev); done {
				return res, err
			}
		}
	}
}

// handleKey applies one keystroke. done is true when the picker should
// exit with the given result.
func (p *Picker) handleKey(ev Event) (done bool, res quickmatch.Ranked, err error) {
	switch ev.Key {
	case KeyEscape, KeyCtrlC:
		return true, quickmatch.Ranked{}, ErrAborted

	case KeyEnter:
		if len(p.results) == 0 {
			return true, quickmatch.Ranked{}, ErrNoMatch
		}
		return true, p.results[p.selected], nil

	case KeyUp, KeyCtrlP:
		p.moveSelection(-1)
	case KeyDown, KeyCtrlN:
		p.moveSelection(1)
	case KeyPageUp:
		p.moveSelection(-p.pageSize())
	case KeyPageDown:
		p.moveSelection(p.pageSize())

	case KeyLeft:
		p.query.Left()
	case KeyRight:
		p.query.Right()
	case KeyHome, KeyCtrlA:
		p.query.Home()
	case KeyEnd, KeyCtrlE:
		p.query.End()

	case KeyBackspace:
		if p.query.Backspace() {
			p.search()
		}
	case KeyDelete:
		if p.query.Delete() {
			p.search()
		}
	case KeyCtrlU:
		if p.query.Clear() {
			p.search()
		}
	case KeyCtrlW:
		if p.query.DeleteWord() {
			p.search()
		}
	case KeyRune:
		p.query.Insert(ev.Rune)
		p.search()
	}

	return false, quickmatch.Ranked{}, nil
}

// search kicks off a rank of the current query. Results land in the
// pending buffer from the searcher's goroutine.
func (p *Picker) search() {
	p.searcher.Search(p.query.String(), p.items, 0, func(results []quickmatch.Ranked) {
		p.mu.Lock()
		p.pending = results
		p.hasPending = true
		p.mu.Unlock()
		p.screen.PostEvent(Event{Type: EventRefresh})
	})
}

// applyPending moves freshly ranked results into the model and resets
// the selection to the top.
func (p *Picker) applyPending() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasPending {
		return
	}
	p.results = p.pending
	p.pending = nil
	p.hasPending = false
	p.selected = 0
	p.offset = 0
}

func (p *Picker) moveSelection(delta int) {
	p.selected += delta
	if p.selected >= len(p.results) {
		p.selected = len(p.results) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
}

// pageSize is the list height at the current screen size.
func (p *Picker) pageSize() int {
	_, height := p.viewSize()
	if size := height - 2; size > 0 {
		return size
	}
	return 1
}

// viewSize is the screen size clamped to the configured height.
func (p *Picker) viewSize() (int, int) {
	width, height := p.screen.Size()
	if p.opts.Height > 0 && p.opts.Height < height {
		height = p.opts.Height
	}
	return width, height
}

// Layout: row 0 prompt, row 1 match counter, remaining rows the list.
func (p *Picker) render() {
	width, height := p.viewSize()
	p.screen.Clear()

	p.drawPrompt(width)
	p.drawCounter(width)
	p.drawList(width, height)

	p.screen.Show()
}

func (p *Picker) drawPrompt(width int) {
	x := p.drawString(0, 0, p.opts.Prompt, p.opts.Theme.Prompt, width)
	p.drawString(x, 0, p.query.String(), p.opts.Theme.Normal, width)

	cursorX := uniseg.StringWidth(p.opts.Prompt) + uniseg.StringWidth(p.query.Prefix())
	if cursorX >= width {
		cursorX = width - 1
	}
	p.screen.ShowCursor(cursorX, 0)
}

func (p *Picker) drawCounter(width int) {
	counter := fmt.Sprintf("%d/%d", len(p.results), len(p.items))
	p.drawString(2, 1, counter, p.opts.Theme.Counter, width)
}

func (p *Picker) drawList(width, height int) {
	visible := height - 2
	if visible <= 0 {
		return
	}

	// Keep the selection on screen.
	if p.selected < p.offset {
		p.offset = p.selected
	}
	if p.selected >= p.offset+visible {
		p.offset = p.selected - visible + 1
	}
	if p.offset < 0 {
		p.offset = 0
	}

	for row := 0; row < visible; row++ {
		idx := p.offset + row
		if idx >= len(p.results) {
			break
		}
		p.drawCandidate(2+row, width, p.results[idx], idx == p.selected)
	}
}

func (p *Picker) drawCandidate(y, width int, res quickmatch.Ranked, selected bool) {
	theme := p.opts.Theme

	normal := theme.Normal
	matched := theme.matchedStyle(res.Score)
	marker := theme.Normal
	score := theme.scoreStyle(res.Score)
	if selected {
		normal.Reverse = true
		matched.Reverse = true
		score.Reverse = true
		marker = theme.Selected
	}

	x := 0
	if selected {
		x = p.drawString(x, y, "> ", marker, width)
	} else {
		x = p.drawString(x, y, "  ", marker, width)
	}

	if p.opts.ShowScores {
		x = p.drawString(x, y, strconv.FormatFloat(res.Score, 'f', 4, 64), score, width)
		x = p.drawString(x, y, " ", normal, width)
	}

	p.drawMatched(x, y, res.Item.Text, res.Positions, normal, matched, width)
}

// drawMatched draws candidate text with matched runes styled. Positions
// are ascending rune indices.
func (p *Picker) drawMatched(x, y int, text string, positions []int, normal, matched Style, maxX int) {
	pi := 0
	ri := 0
	for _, r := range text {
		style := normal
		if pi < len(positions) && positions[pi] == ri {
			style = matched
			pi++
		}
		ri++

		w := cellWidth(r)
		if w == 0 {
			continue
		}
		if x+w > maxX {
			break
		}
		p.screen.SetCell(x, y, r, style)
		x += w
	}
}

// drawString draws s at (x, y) in one style, stopping at maxX. Returns
// the x position after the last cell.
func (p *Picker) drawString(x, y int, s string, style Style, maxX int) int {
	for _, r := range s {
		w := cellWidth(r)
		if w == 0 {
			continue
		}
		if x+w > maxX {
			break
		}
		p.screen.SetCell(x, y, r, style)
		x += w
	}
	return x
}

// cellWidth is the terminal display width of a rune. Wide CJK runes take
// two cells, combining marks take none.
func cellWidth(r rune) int {
	return uniseg.StringWidth(string(r))
}
