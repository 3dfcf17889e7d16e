// Package source loads candidate items for matching from files, standard
// input, JSON documents, and YAML documents, and watches candidate files
// for changes.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
	"gopkg.in/yaml.v3"

	"github.com/dshills/quickmatch"
)

// MaxLineBytes caps a single candidate line. Longer lines are truncated,
// not rejected, so a stray minified file in a piped listing cannot blow up
// memory or scoring time.
const MaxLineBytes = 64 * 1024

// Format selects how input bytes become candidate items.
type Format int

const (
	// FormatLines treats each non-empty line as one candidate.
	FormatLines Format = iota
	// FormatJSON extracts candidates from a JSON document via a path.
	FormatJSON
	// FormatYAML reads a YAML list of strings or mappings.
	FormatYAML
)

// Errors returned by source loading.
var (
	// ErrBadJSONPath indicates the JSON path matched nothing usable.
	ErrBadJSONPath = errors.New("json path matched no array")

	// ErrBadYAML indicates the YAML document is not a candidate list.
	ErrBadYAML = errors.New("yaml document is not a list")
)

// Options controls candidate loading.
type Options struct {
	// Format selects the input format.
	Format Format

	// JSONPath locates the candidate array inside a JSON document, in
	// gjson syntax (e.g. "items.#.name"). Required for FormatJSON.
	JSONPath string

	// Glob drops candidates whose text doesn't match the pattern.
	// Empty keeps everything.
	Glob string

	// NullSeparated splits FormatLines input on NUL instead of newlines,
	// for find -print0 style producers.
	NullSeparated bool
}

// Load reads candidates from r according to opts.
func Load(r io.Reader, opts Options) ([]quickmatch.Item, error) {
	switch opts.Format {
	case FormatLines:
		return loadLines(r, opts)
	case FormatJSON:
		return loadJSON(r, opts)
	case FormatYAML:
		return loadYAML(r, opts)
	default:
		return nil, fmt.Errorf("unknown source format %d", opts.Format)
	}
}

// LoadFile reads candidates from the file at path according to opts.
func LoadFile(path string, opts Options) ([]quickmatch.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening candidates %s: %w", path, err)
	}
	defer f.Close()

	items, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading candidates %s: %w", path, err)
	}
	return items, nil
}

// loadLines reads one candidate per line (or per NUL-separated record),
// truncating records longer than MaxLineBytes and skipping empty ones.
func loadLines(r io.Reader, opts Options) ([]quickmatch.Item, error) {
	br := bufio.NewReader(r)
	var items []quickmatch.Item

	delim := byte('\n')
	if opts.NullSeparated {
		delim = 0
	}

	var record []byte
	for {
		chunk, err := br.ReadSlice(delim)
		atEOF := errors.Is(err, io.EOF)
		switch {
		case err == nil || atEOF:
			record = appendCapped(record, chunk, err == nil)
		case errors.Is(err, bufio.ErrBufferFull):
			record = appendCapped(record, chunk, false)
			continue
		default:
			return nil, err
		}

		if text := finishRecord(record, opts.NullSeparated); text != "" {
			if keepCandidate(text, opts.Glob) {
				items = append(items, quickmatch.Item{Text: text})
			}
		}
		record = record[:0]

		if atEOF {
			return items, nil
		}
	}
}

// appendCapped appends chunk to record up to MaxLineBytes, dropping the
// trailing delimiter when present.
func appendCapped(record, chunk []byte, hasDelim bool) []byte {
	if hasDelim && len(chunk) > 0 {
		chunk = chunk[:len(chunk)-1]
	}
	room := MaxLineBytes - len(record)
	if room <= 0 {
		return record
	}
	if len(chunk) > room {
		chunk = chunk[:room]
	}
	return append(record, chunk...)
}

// finishRecord converts an accumulated record to candidate text. Newline
// records also shed a trailing carriage return for CRLF input.
func finishRecord(record []byte, nullSeparated bool) string {
	if !nullSeparated && len(record) > 0 && record[len(record)-1] == '\r' {
		record = record[:len(record)-1]
	}
	return string(record)
}

// loadJSON extracts candidates from a JSON document. String elements become
// plain items; object elements take their text from a "text" key and keep
// their raw JSON in Item.Data so emitters can carry the original through.
func loadJSON(r io.Reader, opts Options) ([]quickmatch.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if opts.JSONPath == "" {
		return nil, fmt.Errorf("%w: no path given", ErrBadJSONPath)
	}

	result := gjson.GetBytes(data, opts.JSONPath)
	if !result.Exists() {
		return nil, fmt.Errorf("%w: %q", ErrBadJSONPath, opts.JSONPath)
	}

	var items []quickmatch.Item
	for _, elem := range result.Array() {
		item := quickmatch.Item{Text: elem.String()}
		if elem.IsObject() {
			text := elem.Get("text")
			if !text.Exists() {
				return nil, fmt.Errorf("%w: object element has no text key", ErrBadJSONPath)
			}
			item.Text = text.String()
			item.Data = elem.Raw
		}
		if item.Text == "" || !keepCandidate(item.Text, opts.Glob) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// loadYAML reads a YAML list. Elements are strings, or mappings with a
// "text" key whose full mapping rides along as Item.Data.
func loadYAML(r io.Reader, opts Options) ([]quickmatch.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc []any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadYAML, err)
	}

	var items []quickmatch.Item
	for i, elem := range doc {
		var item quickmatch.Item
		switch v := elem.(type) {
		case string:
			item.Text = v
		case map[string]any:
			text, ok := v["text"].(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %d has no text key", ErrBadYAML, i)
			}
			item.Text = text
			item.Data = v
		default:
			return nil, fmt.Errorf("%w: element %d is %T", ErrBadYAML, i, elem)
		}
		if item.Text == "" || !keepCandidate(item.Text, opts.Glob) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// keepCandidate applies the glob prefilter.
func keepCandidate(text, glob string) bool {
	if glob == "" {
		return true
	}
	return match.Match(text, glob)
}

// DetectFormat guesses a format from a file name, defaulting to lines.
func DetectFormat(path string) Format {
	switch {
	case strings.HasSuffix(path, ".json"):
		return FormatJSON
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		return FormatYAML
	default:
		return FormatLines
	}
}
