// Package quickmatch scores abbreviations against candidate strings for
// command palettes, file finders, and selector widgets. Typing "ofp" finds
// "Open File in Project"; typing "usrmod" finds "lib/user/model.rb".
//
// A score is a product of per-character multipliers in [0, 1]. Matches at
// word boundaries outrank mid-word matches, contiguous runs outrank
// scattered ones, case-exact beats case-insensitive, and a string fully
// consumed by the abbreviation beats one with leftovers. 1.0 means a
// case-exact match of the entire string; 0.0 means the abbreviation's
// characters do not all appear in order.
//
// # Matching a single pair
//
//	res := quickmatch.Match("Open File in Project", "ofp")
//	fmt.Println(res.Score)  // 0 < score < 1
//	fmt.Println(res.Markup) // "<b>O</b>pen <b>F</b>ile in <b>P</b>roject"
//
// Result.Markup wraps each matched character in <b>..</b> with the
// surrounding text escaped; Result.Positions carries the matched rune
// indices for hosts that render their own highlighting.
//
// # Ranking candidate lists
//
//	ranker := quickmatch.NewRanker(quickmatch.DefaultOptions())
//	top := ranker.Rank("usrmod", items, 10)
//
// A Ranker shares one Memo across each batch, so the overlapping
// subproblems of similar candidates are scored once, and caches ranked
// results per abbreviation. AsyncRanker spreads large lists across worker
// goroutines, and StreamingRanker cancels a stale ranking the moment the
// next keystroke arrives.
//
// Matching is total: any pair of strings, empty or not, yields a Result.
package quickmatch
