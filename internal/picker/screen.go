// Package picker implements the interactive terminal UI: a prompt line,
// a live-ranked candidate list, and key handling for editing and
// selection. Drawing goes through the Screen interface so the whole
// model is testable against FakeScreen; the tcell-backed Terminal is the
// real implementation.
package picker

// EventType identifies the kind of a terminal event.
type EventType int

const (
	// EventNone means the screen is gone; the picker treats it as an abort.
	EventNone EventType = iota
	// EventKey is a keystroke.
	EventKey
	// EventResize reports new terminal dimensions.
	EventResize
	// EventRefresh wakes the event loop when async rank results land.
	EventRefresh
)

// Key identifies a keystroke. Printable input arrives as KeyRune with the
// Rune field set.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyCtrlA
	KeyCtrlC
	KeyCtrlE
	KeyCtrlN
	KeyCtrlP
	KeyCtrlU
	KeyCtrlW
)

// Event is a terminal event delivered to the picker loop.
type Event struct {
	Type EventType

	Key  Key
	Rune rune

	Width  int
	Height int
}

// Screen is the drawing surface and event source for the picker.
type Screen interface {
	// Init prepares the screen. Must be called before any drawing.
	Init() error

	// Fini restores the terminal.
	Fini()

	// Size returns the current dimensions.
	Size() (width, height int)

	// SetCell draws one rune. Out-of-bounds positions are ignored.
	SetCell(x, y int, r rune, style Style)

	// Clear blanks the screen buffer.
	Clear()

	// Show flushes buffered drawing to the display.
	Show()

	// ShowCursor places the text cursor.
	ShowCursor(x, y int)

	// HideCursor hides the text cursor.
	HideCursor()

	// PollEvent blocks for the next event.
	PollEvent() Event

	// PostEvent queues a synthetic event for PollEvent to return.
	PostEvent(ev Event)
}
