package quickmatch

// memoKey identifies a subproblem: a suffix of the string paired with a
// suffix of the abbreviation.
type memoKey struct {
	str  string
	abbr string
}

type memoEntry struct {
	score     float64
	positions []int
}

// Memo caches subproblem results across the overlapping recursive calls of
// one matching batch. It changes cost, never outcomes: matching with a
// shared memo returns exactly what matching without one would.
//
// A Memo is owned by the caller. It is not safe for concurrent use, and it
// must not be shared between Matchers with different Scoring values, since
// entries do not record the tuning that produced them. Batch rankers create
// one memo per batch and discard it, which keeps growth bounded by the
// batch's distinct suffix pairs.
type Memo struct {
	entries map[memoKey]memoEntry
}

// NewMemo creates an empty memo.
func NewMemo() *Memo {
	return &Memo{entries: make(map[memoKey]memoEntry)}
}

// Len returns the number of cached subproblems.
func (m *Memo) Len() int {
	return len(m.entries)
}

// Reset discards all cached subproblems, keeping the memo usable.
func (m *Memo) Reset() {
	m.entries = make(map[memoKey]memoEntry)
}

// get returns the cached result for a pair. The positions slice is a copy,
// so callers can hold it without aliasing the cache.
func (m *Memo) get(str, abbr string) (float64, []int, bool) {
	e, ok := m.entries[memoKey{str: str, abbr: abbr}]
	if !ok {
		return 0, nil, false
	}
	var positions []int
	if e.positions != nil {
		positions = append([]int(nil), e.positions...)
	}
	return e.score, positions, true
}

// put stores a computed subproblem result.
func (m *Memo) put(str, abbr string, score float64, positions []int) {
	m.entries[memoKey{str: str, abbr: abbr}] = memoEntry{score: score, positions: positions}
}
