package quickmatch

import "sort"

// Item is a candidate string plus optional caller data carried through
// ranking untouched.
type Item struct {
	// Text is the string matched against the abbreviation.
	Text string

	// Data is arbitrary data associated with the item.
	Data any
}

// Ranked pairs an item with its match outcome.
type Ranked struct {
	Item      Item
	Score     float64
	Markup    string
	Positions []int
}

// Options configures a Ranker.
type Options struct {
	// CacheSize is the maximum number of abbreviations whose ranked results
	// are cached. 0 disables caching.
	CacheSize int

	// MinScore is the minimum score a result must reach to be returned.
	// The zero default keeps every real match and drops only non-matches.
	MinScore float64

	// Scoring tunes the underlying matcher.
	Scoring Scoring
}

// DefaultOptions returns the standard ranker configuration.
func DefaultOptions() Options {
	return Options{
		CacheSize: 1000,
		MinScore:  0,
		Scoring:   DefaultScoring(),
	}
}

// Ranker scores candidate lists against an abbreviation and returns the
// matches best-first. It is safe for concurrent use.
type Ranker struct {
	matcher *Matcher
	cache   *Cache
	options Options
}

// NewRanker creates a Ranker with the given options.
func NewRanker(opts Options) *Ranker {
	var cache *Cache
	if opts.CacheSize > 0 {
		cache = NewCache(opts.CacheSize)
	}
	return &Ranker{
		matcher: NewMatcher(opts.Scoring),
		cache:   cache,
		options: opts,
	}
}

// Matcher returns the underlying single-pair matcher.
func (r *Ranker) Matcher() *Matcher {
	return r.matcher
}

// Rank scores items against abbr and returns the results sorted by score
// descending, ties by text ascending. limit <= 0 means unlimited. A single
// memo is shared across the batch and discarded afterwards, so repeated
// suffixes across items cost one computation each.
func (r *Ranker) Rank(abbr string, items []Item, limit int) []Ranked {
	if abbr == "" {
		return r.rankEmptyAbbr(items, limit)
	}

	if r.cache != nil {
		if cached := r.cache.Get(abbr); cached != nil {
			return applyLimit(cached, limit)
		}
	}

	memo := NewMemo()
	results := make([]Ranked, 0, len(items))
	for _, item := range items {
		res := r.matcher.Match(item.Text, abbr, memo)
		if res.Score > 0 && res.Score >= r.options.MinScore {
			results = append(results, Ranked{
				Item:      item,
				Score:     res.Score,
				Markup:    res.Markup,
				Positions: res.Positions,
			})
		}
	}
	sortRanked(results)

	if r.cache != nil {
		r.cache.Set(abbr, results)
	}
	return applyLimit(results, limit)
}

// RankStrings is a convenience wrapper for plain string candidates.
func (r *Ranker) RankStrings(abbr string, candidates []string, limit int) []Ranked {
	items := make([]Item, len(candidates))
	for i, text := range candidates {
		items[i] = Item{Text: text}
	}
	return r.Rank(abbr, items, limit)
}

// ClearCache drops all cached results.
func (r *Ranker) ClearCache() {
	if r.cache != nil {
		r.cache.Clear()
	}
}

// rankEmptyAbbr keeps input order: with nothing typed there is nothing to
// rank, but scores still follow the completeness rule.
func (r *Ranker) rankEmptyAbbr(items []Item, limit int) []Ranked {
	count := len(items)
	if limit > 0 && limit < count {
		count = limit
	}
	results := make([]Ranked, count)
	for i := 0; i < count; i++ {
		score := 1.0
		if items[i].Text != "" {
			score = r.options.Scoring.NotComplete
		}
		results[i] = Ranked{
			Item:   items[i],
			Score:  score,
			Markup: EscapeMarkup(items[i].Text),
		}
	}
	return results
}

func sortRanked(results []Ranked) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].Item.Text < results[j].Item.Text
		}
		return results[i].Score > results[j].Score
	})
}

func applyLimit(results []Ranked, limit int) []Ranked {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
