package picker

import (
	"github.com/gdamore/tcell/v2"
)

// Terminal implements Screen on a real terminal via tcell.
type Terminal struct {
	screen tcell.Screen
}

// NewTerminal allocates a tcell screen. Init must still be called.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

func (t *Terminal) Init() error {
	return t.screen.Init()
}

func (t *Terminal) Fini() {
	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	return t.screen.Size()
}

func (t *Terminal) SetCell(x, y int, r rune, style Style) {
	t.screen.SetContent(x, y, r, nil, toTcellStyle(style))
}

func (t *Terminal) Clear() {
	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.screen.Show()
}

func (t *Terminal) ShowCursor(x, y int) {
	t.screen.ShowCursor(x, y)
}

func (t *Terminal) HideCursor() {
	t.screen.HideCursor()
}

// PollEvent blocks for the next event the picker understands, skipping
// tcell event kinds it doesn't. A nil tcell event means the screen is
// finished and maps to EventNone.
func (t *Terminal) PollEvent() Event {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return Event{Type: EventNone}
		}

		switch e := ev.(type) {
		case *tcell.EventKey:
			return convertKey(e)
		case *tcell.EventResize:
			width, height := e.Size()
			return Event{Type: EventResize, Width: width, Height: height}
		case *refreshEvent:
			return Event{Type: EventRefresh}
		}
	}
}

func (t *Terminal) PostEvent(ev Event) {
	switch ev.Type {
	case EventRefresh:
		_ = t.screen.PostEvent(newRefreshEvent())
	case EventKey:
		_ = t.screen.PostEvent(tcell.NewEventKey(toTcellKey(ev.Key), ev.Rune, tcell.ModNone))
	}
}

// refreshEvent is the tcell carrier for EventRefresh.
type refreshEvent struct {
	tcell.EventTime
}

func newRefreshEvent() *refreshEvent {
	ev := &refreshEvent{}
	ev.SetEventNow()
	return ev
}

func toTcellStyle(s Style) tcell.Style {
	style := tcell.StyleDefault
	if s.HasFG {
		r, g, b := s.FG.RGB255()
		style = style.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
	}
	if s.Bold {
		style = style.Bold(true)
	}
	if s.Reverse {
		style = style.Reverse(true)
	}
	if s.Dim {
		style = style.Dim(true)
	}
	return style
}

func convertKey(e *tcell.EventKey) Event {
	ev := Event{Type: EventKey}
	switch e.Key() {
	case tcell.KeyRune:
		ev.Key = KeyRune
		ev.Rune = e.Rune()
	case tcell.KeyEnter:
		ev.Key = KeyEnter
	case tcell.KeyEscape:
		ev.Key = KeyEscape
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		ev.Key = KeyBackspace
	case tcell.KeyDelete:
		ev.Key = KeyDelete
	case tcell.KeyUp:
		ev.Key = KeyUp
	case tcell.KeyDown:
		ev.Key = KeyDown
	case tcell.KeyLeft:
		ev.Key = KeyLeft
	case tcell.KeyRight:
		ev.Key = KeyRight
	case tcell.KeyHome:
		ev.Key = KeyHome
	case tcell.KeyEnd:
		ev.Key = KeyEnd
	case tcell.KeyPgUp:
		ev.Key = KeyPageUp
	case tcell.KeyPgDn:
		ev.Key = KeyPageDown
	case tcell.KeyCtrlA:
		ev.Key = KeyCtrlA
	case tcell.KeyCtrlC:
		ev.Key = KeyCtrlC
	case tcell.KeyCtrlE:
		ev.Key = KeyCtrlE
	case tcell.KeyCtrlN:
		ev.Key = KeyCtrlN
	case tcell.KeyCtrlP:
		ev.Key = KeyCtrlP
	case tcell.KeyCtrlU:
		ev.Key = KeyCtrlU
	case tcell.KeyCtrlW:
		ev.Key = KeyCtrlW
	default:
		ev.Key = KeyNone
	}
	return ev
}

func toTcellKey(k Key) tcell.Key {
	switch k {
	case KeyEnter:
		return tcell.KeyEnter
	case KeyEscape:
		return tcell.KeyEscape
	case KeyBackspace:
		return tcell.KeyBackspace2
	case KeyDelete:
		return tcell.KeyDelete
	case KeyUp:
		return tcell.KeyUp
	case KeyDown:
		return tcell.KeyDown
	case KeyLeft:
		return tcell.KeyLeft
	case KeyRight:
		return tcell.KeyRight
	case KeyHome:
		return tcell.KeyHome
	case KeyEnd:
		return tcell.KeyEnd
	case KeyPageUp:
		return tcell.KeyPgUp
	case KeyPageDown:
		return tcell.KeyPgDn
	case KeyCtrlA:
		return tcell.KeyCtrlA
	case KeyCtrlC:
		return tcell.KeyCtrlC
	case KeyCtrlE:
		return tcell.KeyCtrlE
	case KeyCtrlN:
		return tcell.KeyCtrlN
	case KeyCtrlP:
		return tcell.KeyCtrlP
	case KeyCtrlU:
		return tcell.KeyCtrlU
	case KeyCtrlW:
		return tcell.KeyCtrlW
	default:
		return tcell.KeyRune
	}
}
