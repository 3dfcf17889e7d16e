package picker

import (
	"strings"

	"github.com/rivo/uniseg"
)

// FakeScreen is an in-memory Screen for tests. Events are scripted
// through SendKey/SendRune (or PostEvent) and drawing is inspected with
// Row and StyleAt.
type FakeScreen struct {
	width  int
	height int
	runes  [][]rune
	styles [][]Style

	events chan Event

	cursorX       int
	cursorY       int
	cursorVisible bool
	finished      bool
}

// NewFakeScreen creates a fake screen with the given dimensions.
func NewFakeScreen(width, height int) *FakeScreen {
	f := &FakeScreen{
		width:  width,
		height: height,
		events: make(chan Event, 256),
	}
	f.blank()
	return f
}

func (f *FakeScreen) blank() {
	f.runes = make([][]rune, f.height)
	f.styles = make([][]Style, f.height)
	for y := 0; y < f.height; y++ {
		f.runes[y] = make([]rune, f.width)
		f.styles[y] = make([]Style, f.width)
		for x := 0; x < f.width; x++ {
			f.runes[y][x] = ' '
		}
	}
}

func (f *FakeScreen) Init() error {
	f.blank()
	return nil
}

func (f *FakeScreen) Fini() {
	f.finished = true
}

func (f *FakeScreen) Size() (int, int) {
	return f.width, f.height
}

func (f *FakeScreen) SetCell(x, y int, r rune, style Style) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	f.runes[y][x] = r
	f.styles[y][x] = style
}

func (f *FakeScreen) Clear() {
	f.blank()
}

func (f *FakeScreen) Show() {}

func (f *FakeScreen) ShowCursor(x, y int) {
	f.cursorX = x
	f.cursorY = y
	f.cursorVisible = true
}

func (f *FakeScreen) HideCursor() {
	f.cursorVisible = false
}

func (f *FakeScreen) PollEvent() Event {
	return <-f.events
}

func (f *FakeScreen) PostEvent(ev Event) {
	select {
	case f.events <- ev:
	default:
	}
}

// SendKey queues a special-key event.
func (f *FakeScreen) SendKey(key Key) {
	f.PostEvent(Event{Type: EventKey, Key: key})
}

// SendRune queues a printable keystroke.
func (f *FakeScreen) SendRune(r rune) {
	f.PostEvent(Event{Type: EventKey, Key: KeyRune, Rune: r})
}

// SendString queues one keystroke per rune of s.
func (f *FakeScreen) SendString(s string) {
	for _, r := range s {
		f.SendRune(r)
	}
}

// Resize changes the dimensions and queues a resize event.
func (f *FakeScreen) Resize(width, height int) {
	f.width = width
	f.height = height
	f.blank()
	f.PostEvent(Event{Type: EventResize, Width: width, Height: height})
}

// Row returns the text of row y with trailing blanks trimmed. Cells
// shadowed by a wide rune are skipped, matching how a terminal reads.
func (f *FakeScreen) Row(y int) string {
	if y < 0 || y >= f.height {
		return ""
	}
	var b strings.Builder
	for x := 0; x < f.width; x++ {
		r := f.runes[y][x]
		b.WriteRune(r)
		if uniseg.StringWidth(string(r)) == 2 {
			x++
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// StyleAt returns the style of the cell at (x, y).
func (f *FakeScreen) StyleAt(x, y int) Style {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return Style{}
	}
	return f.styles[y][x]
}

// Cursor returns the cursor position and visibility.
func (f *FakeScreen) Cursor() (x, y int, visible bool) {
	return f.cursorX, f.cursorY, f.cursorVisible
}

// Finished reports whether Fini was called.
func (f *FakeScreen) Finished() bool {
	return f.finished
}
