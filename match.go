package quickmatch

import (
	"math"
	"unicode/utf8"
)

// Result is the outcome of matching an abbreviation against a string.
type Result struct {
	// Score rates the match in [0, 1]. Exactly 1.0 only for a case-exact
	// match of the entire string; exactly 0.0 when the abbreviation's
	// characters do not all appear in order.
	Score float64

	// Markup is the string with every matched character wrapped in
	// BoldOpen/BoldClose and all literal text escaped by EscapeMarkup.
	Markup string

	// Positions holds the rune indices of the matched characters in
	// ascending order, nil when nothing matched. Hosts rendering outside a
	// markup context should highlight from these instead of parsing Markup.
	Positions []int
}

// Matcher scores abbreviations against strings with a fixed Scoring. It is
// immutable after creation and safe for concurrent use as long as each
// goroutine supplies its own Memo, or none.
type Matcher struct {
	scoring Scoring
}

// NewMatcher creates a Matcher with the given scoring. Most hosts want
// DefaultScoring.
func NewMatcher(scoring Scoring) *Matcher {
	return &Matcher{scoring: scoring}
}

var defaultMatcher = NewMatcher(DefaultScoring())

// Match scores abbreviation against s with the default scoring.
func Match(s, abbreviation string) Result {
	return defaultMatcher.Match(s, abbreviation, nil)
}

// MatchWithMemo scores abbreviation against s with the default scoring,
// sharing subproblem results through memo. Use one memo per batch of
// related calls, such as one keystroke's pass over a candidate list.
func MatchWithMemo(s, abbreviation string, memo *Memo) Result {
	return defaultMatcher.Match(s, abbreviation, memo)
}

// Match scores abbreviation against s. memo may be nil to skip caching.
// Match is total: every input pair, including empty strings, yields a
// Result, and a zero score always comes with unhighlighted markup.
func (m *Matcher) Match(s, abbreviation string, memo *Memo) Result {
	score, positions := m.match(s, abbreviation, memo)
	if positions != nil {
		// Detach from the memo before handing the slice to the caller.
		positions = append([]int(nil), positions...)
	}
	return Result{
		Score:     score,
		Markup:    renderMarkup(s, positions),
		Positions: positions,
	}
}

// Score returns just the score of abbreviation against s, skipping markup.
func (m *Matcher) Score(s, abbreviation string, memo *Memo) float64 {
	score, _ := m.match(s, abbreviation, memo)
	return score
}

// match is the recursive core. Returned positions are rune indices into s
// and must be treated as read-only: the slice may alias a memo entry.
func (m *Matcher) match(s, abbreviation string, memo *Memo) (float64, []int) {
	// A consumed abbreviation is a success; leftover characters the user
	// never typed cost the completeness penalty.
	if abbreviation == "" {
		if s == "" {
			return 1.0, nil
		}
		return m.scoring.NotComplete, nil
	}

	if memo != nil {
		if score, positions, ok := memo.get(s, abbreviation); ok {
			return score, positions
		}
	}

	target, size := utf8.DecodeRuneInString(abbreviation)
	rest := abbreviation[size:]

	bestScore := 0.0
	var bestPositions []int

	for _, sp := range splitOnChar(s, target) {
		subScore, subPositions := m.match(sp.after, rest, memo)
		if subScore == 0 {
			continue
		}

		score := subScore * m.scoring.tier(sp)
		if sp.matched != target {
			score *= m.scoring.CaseMismatch
		}
		skipped := utf8.RuneCountInString(sp.before)
		if skipped > 0 {
			score *= math.Pow(m.scoring.Skipped, float64(skipped))
		}

		// Strictly greater keeps the leftmost occurrence on ties and never
		// lets a failed branch displace the zero-score fallback.
		if score > bestScore {
			positions := make([]int, 0, len(subPositions)+1)
			positions = append(positions, skipped)
			for _, p := range subPositions {
				positions = append(positions, skipped+1+p)
			}
			bestScore = score
			bestPositions = positions
		}
	}

	if memo != nil {
		memo.put(s, abbreviation, bestScore, bestPositions)
	}
	return bestScore, bestPositions
}
