package quickmatch

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Score tiers and penalties. A match's score is the product of one tier
// multiplier per matched character, the skip penalty per skipped character,
// the case penalty per case-insensitive match, and the completeness penalty
// when the string has leftover characters after the abbreviation is consumed.
const (
	// ScoreContinueMatch applies when a match begins at the start of the
	// remaining string: the very first character, or the character right
	// after the previous match.
	ScoreContinueMatch = 1.0

	// ScoreStartWord applies when a match begins a word: the preceding
	// character is a separator, or the match is the Upper of a lower→Upper
	// camelCase transition.
	ScoreStartWord = 0.9

	// ScoreOK applies to a match at any other position.
	ScoreOK = 0.8

	// PenaltySkipped is applied once per character skipped before a match.
	// Small enough that the tier multipliers dominate until roughly a
	// hundred skipped characters accumulate.
	PenaltySkipped = 0.999

	// PenaltyCaseMismatch applies when a character matches the abbreviation
	// only case-insensitively.
	PenaltyCaseMismatch = 0.9999

	// PenaltyNotComplete is the score of a string with characters left over
	// after the whole abbreviation matched, keeping exact full matches
	// strictly ahead of prefix matches.
	PenaltyNotComplete = 0.99
)

// wordSeparators are the characters that end a word: a match immediately
// after any of them earns the ScoreStartWord tier.
const wordSeparators = "\\/-_+.# \t\"@[({&"

// Scoring holds the tier multipliers and penalties used by a Matcher.
// Every value is expected to lie in (0, 1]; values above 1 break the
// guarantee that scores stay within [0, 1].
type Scoring struct {
	// ContinueMatch multiplies matches that begin at the start of the
	// remaining string.
	ContinueMatch float64

	// StartWord multiplies matches that begin a word.
	StartWord float64

	// OK multiplies matches at any other position.
	OK float64

	// Skipped is raised to the number of characters skipped before a match.
	Skipped float64

	// CaseMismatch multiplies matches whose case differs from the typed
	// abbreviation character.
	CaseMismatch float64

	// NotComplete is the score of a fully matched abbreviation that leaves
	// part of the string unconsumed.
	NotComplete float64
}

// DefaultScoring returns the standard tier multipliers and penalties.
func DefaultScoring() Scoring {
	return Scoring{
		ContinueMatch: ScoreContinueMatch,
		StartWord:     ScoreStartWord,
		OK:            ScoreOK,
		Skipped:       PenaltySkipped,
		CaseMismatch:  PenaltyCaseMismatch,
		NotComplete:   PenaltyNotComplete,
	}
}

// Validate reports the first tuning value outside (0, 1], if any.
func (s Scoring) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"continue_match", s.ContinueMatch},
		{"start_word", s.StartWord},
		{"ok", s.OK},
		{"skipped", s.Skipped},
		{"case_mismatch", s.CaseMismatch},
		{"not_complete", s.NotComplete},
	}
	for _, c := range checks {
		if c.value <= 0 || c.value > 1 {
			return fmt.Errorf("scoring: %s must be in (0, 1], got %v", c.name, c.value)
		}
	}
	return nil
}

// tier returns the position multiplier for a split: ContinueMatch when
// nothing precedes the match, StartWord at a word boundary, OK otherwise.
func (s Scoring) tier(sp split) float64 {
	if sp.before == "" {
		return s.ContinueMatch
	}
	prev, _ := utf8.DecodeLastRuneInString(sp.before)
	if strings.ContainsRune(wordSeparators, prev) {
		return s.StartWord
	}
	if unicode.IsUpper(sp.matched) && unicode.IsLower(prev) {
		return s.StartWord
	}
	return s.OK
}
