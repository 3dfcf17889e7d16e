package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/quickmatch"
	"github.com/dshills/quickmatch/internal/picker"
)

// Emitter prints ranked results in one of the output formats.
type Emitter struct {
	// Format is one of "text", "markup", "ansi", "json". Empty means text.
	Format string

	// Scores prefixes each text, markup, and ansi line with the score.
	// JSON objects always carry it.
	Scores bool

	// Color highlights matched runes in the text format. The ansi
	// format highlights regardless.
	Color bool

	// Compact minifies JSON output.
	Compact bool

	theme picker.Theme
}

// NewEmitter creates an emitter for the given format.
func NewEmitter(format string) *Emitter {
	return &Emitter{
		Format: format,
		theme:  picker.DefaultTheme(),
	}
}

// Emit writes one result per line (or one JSON document) to w. An empty
// result set writes nothing in the line formats and an empty array in
// JSON.
func (e *Emitter) Emit(w io.Writer, results []quickmatch.Ranked) error {
	switch e.Format {
	case "", "text":
		return e.emitLines(w, results, e.Color)
	case "ansi":
		return e.emitLines(w, results, true)
	case "markup":
		return e.emitMarkup(w, results)
	case "json":
		return e.emitJSON(w, results)
	default:
		return fmt.Errorf("unknown output format %q", e.Format)
	}
}

// EmitOne writes a single result, used for the interactive selection.
func (e *Emitter) EmitOne(w io.Writer, res quickmatch.Ranked) error {
	return e.Emit(w, []quickmatch.Ranked{res})
}

func (e *Emitter) emitLines(w io.Writer, results []quickmatch.Ranked, colored bool) error {
	var b strings.Builder
	for _, res := range results {
		if e.Scores {
			b.WriteString(strconv.FormatFloat(res.Score, 'f', 4, 64))
			b.WriteByte('\t')
		}
		if colored {
			b.WriteString(e.colorize(res))
		} else {
			b.WriteString(res.Item.Text)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (e *Emitter) emitMarkup(w io.Writer, results []quickmatch.Ranked) error {
	var b strings.Builder
	for _, res := range results {
		if e.Scores {
			b.WriteString(strconv.FormatFloat(res.Score, 'f', 4, 64))
			b.WriteByte('\t')
		}
		b.WriteString(res.Markup)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// colorize wraps each matched rune in a bold truecolor escape. The color
// follows the same score gradient the picker uses.
func (e *Emitter) colorize(res quickmatch.Ranked) string {
	if len(res.Positions) == 0 {
		return res.Item.Text
	}

	r8, g8, b8 := e.theme.ScoreColor(res.Score).RGB255()
	open := fmt.Sprintf("\x1b[1;38;2;%d;%d;%dm", r8, g8, b8)
	const reset = "\x1b[0m"

	var b strings.Builder
	next := 0
	idx := 0
	for _, r := range res.Item.Text {
		if next < len(res.Positions) && res.Positions[next] == idx {
			b.WriteString(open)
			b.WriteRune(r)
			b.WriteString(reset)
			next++
		} else {
			b.WriteRune(r)
		}
		idx++
	}
	return b.String()
}

// emitJSON writes the results as a JSON array of objects with text,
// score, markup, and positions keys. Items loaded from structured
// sources keep their original element under data.
func (e *Emitter) emitJSON(w io.Writer, results []quickmatch.Ranked) error {
	doc := "[]"
	var err error
	for i, res := range results {
		base := strconv.Itoa(i)
		if doc, err = sjson.Set(doc, base+".text", res.Item.Text); err != nil {
			return WrapError(err, "encoding result %d", i)
		}
		if doc, err = sjson.Set(doc, base+".score", res.Score); err != nil {
			return WrapError(err, "encoding result %d", i)
		}
		if doc, err = sjson.Set(doc, base+".markup", res.Markup); err != nil {
			return WrapError(err, "encoding result %d", i)
		}
		if len(res.Positions) > 0 {
			doc, err = sjson.Set(doc, base+".positions", res.Positions)
		} else {
			doc, err = sjson.SetRaw(doc, base+".positions", "[]")
		}
		if err != nil {
			return WrapError(err, "encoding result %d", i)
		}
		if res.Item.Data != nil {
			if raw, ok := res.Item.Data.(string); ok && gjson.Valid(raw) {
				doc, err = sjson.SetRaw(doc, base+".data", raw)
			} else {
				doc, err = sjson.Set(doc, base+".data", res.Item.Data)
			}
			if err != nil {
				return WrapError(err, "encoding result %d", i)
			}
		}
	}

	out := []byte(doc)
	if e.Compact {
		out = pretty.Ugly(out)
	} else {
		out = pretty.Pretty(out)
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	_, err = w.Write(out)
	return err
}
