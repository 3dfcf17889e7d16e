package picker

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Style describes how a cell is drawn. The zero value is the terminal
// default.
type Style struct {
	FG      colorful.Color
	HasFG   bool
	Bold    bool
	Reverse bool
	Dim     bool
}

// Theme collects the styles the picker draws with. Matched runes and the
// score column are colored along a gradient from ScoreLow to ScoreHigh.
type Theme struct {
	Prompt   Style
	Normal   Style
	Matched  Style
	Selected Style
	Counter  Style

	ScoreLow  colorful.Color
	ScoreHigh colorful.Color
}

// DefaultTheme returns the stock look: bold prompt, bold matched runes,
// reversed selection, and an orange-to-green score gradient.
func DefaultTheme() Theme {
	low, _ := colorful.Hex("#d08770")
	high, _ := colorful.Hex("#a3be8c")
	return Theme{
		Prompt:    Style{Bold: true},
		Normal:    Style{},
		Matched:   Style{Bold: true},
		Selected:  Style{Reverse: true},
		Counter:   Style{Dim: true},
		ScoreLow:  low,
		ScoreHigh: high,
	}
}

// ScoreColor blends the gradient endpoints in HCL space. HCL keeps
// perceived lightness steady across the blend, so mid-range scores don't
// turn muddy the way RGB blending does.
func (t Theme) ScoreColor(score float64) colorful.Color {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return t.ScoreLow.BlendHcl(t.ScoreHigh, score).Clamped()
}

// matchedStyle is the style for a matched rune at the given score.
func (t Theme) matchedStyle(score float64) Style {
	style := t.Matched
	style.FG = t.ScoreColor(score)
	style.HasFG = true
	return style
}

// scoreStyle is the style for the score column at the given score.
func (t Theme) scoreStyle(score float64) Style {
	return Style{FG: t.ScoreColor(score), HasFG: true}
}
