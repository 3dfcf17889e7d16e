package quickmatch

import (
	"container/heap"
	"context"
	"runtime"
	"sync"
)

// AsyncRanker ranks large candidate lists across worker goroutines. Each
// worker scores one chunk with its own memo, so memos stay confined to a
// single goroutine while the chunks share nothing but the read-only items.
type AsyncRanker struct {
	ranker     *Ranker
	numWorkers int
}

// NewAsyncRanker creates an AsyncRanker on top of ranker. numWorkers <= 0
// means one worker per CPU.
func NewAsyncRanker(ranker *Ranker, numWorkers int) *AsyncRanker {
	if ranker == nil {
		panic("quickmatch: NewAsyncRanker requires a ranker")
	}
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &AsyncRanker{
		ranker:     ranker,
		numWorkers: numWorkers,
	}
}

// RankParallel scores items against abbr across worker goroutines and
// returns the merged results sorted best-first. It returns nil when ctx is
// canceled before the merge completes. limit <= 0 means unlimited; with a
// limit each worker keeps only its top candidates, so memory stays
// proportional to limit times workers rather than to the item count.
func (a *AsyncRanker) RankParallel(ctx context.Context, abbr string, items []Item, limit int) []Ranked {
	if len(items) == 0 {
		return nil
	}
	if abbr == "" {
		return a.ranker.rankEmptyAbbr(items, limit)
	}

	chunks := chunkItems(items, a.numWorkers)
	resultCh := make(chan []Ranked, len(chunks))

	var wg sync.WaitGroup
	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []Item) {
			defer wg.Done()
			resultCh <- a.rankChunk(ctx, abbr, chunk, limit)
		}(chunk)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var merged []Ranked
	for results := range resultCh {
		merged = append(merged, results...)
	}

	select {
	case <-ctx.Done():
		return nil
	default:
	}

	sortRanked(merged)
	return applyLimit(merged, limit)
}

// RankAsync starts a parallel ranking and streams the sorted results over
// the returned channel. The channel is closed when all results have been
// sent or the ranking is canceled. The CancelFunc stops the ranking early
// and must be called once the caller is done with the channel.
func (a *AsyncRanker) RankAsync(ctx context.Context, abbr string, items []Item, limit int) (<-chan Ranked, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Ranked)

	go func() {
		defer close(out)
		for _, res := range a.RankParallel(ctx, abbr, items, limit) {
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel
}

// rankChunk scores one chunk with a chunk-local memo. With a limit it keeps
// a min-heap of the top candidates instead of the whole chunk.
func (a *AsyncRanker) rankChunk(ctx context.Context, abbr string, chunk []Item, limit int) []Ranked {
	matcher := a.ranker.matcher
	minScore := a.ranker.options.MinScore
	memo := NewMemo()

	if limit <= 0 {
		results := make([]Ranked, 0, len(chunk))
		for i, item := range chunk {
			if i%64 == 0 && ctxDone(ctx) {
				return nil
			}
			res := matcher.Match(item.Text, abbr, memo)
			if res.Score > 0 && res.Score >= minScore {
				results = append(results, Ranked{Item: item, Score: res.Score, Markup: res.Markup, Positions: res.Positions})
			}
		}
		return results
	}

	h := &rankedHeap{}
	heap.Init(h)
	for i, item := range chunk {
		if i%64 == 0 && ctxDone(ctx) {
			return nil
		}
		res := matcher.Match(item.Text, abbr, memo)
		if res.Score <= 0 || res.Score < minScore {
			continue
		}
		ranked := Ranked{Item: item, Score: res.Score, Markup: res.Markup, Positions: res.Positions}
		if h.Len() < limit {
			heap.Push(h, ranked)
		} else if res.Score > (*h)[0].Score {
			(*h)[0] = ranked
			heap.Fix(h, 0)
		}
	}
	return *h
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// chunkItems splits items into at most n contiguous chunks of near-equal
// size.
func chunkItems(items []Item, n int) [][]Item {
	if n <= 0 {
		n = 1
	}
	size := (len(items) + n - 1) / n
	if size < 1 {
		size = 1
	}
	var chunks [][]Item
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// rankedHeap is a min-heap by score, keeping the worst of the kept results
// at the root so it can be displaced first.
type rankedHeap []Ranked

func (h rankedHeap) Len() int           { return len(h) }
func (h rankedHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h rankedHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *rankedHeap) Push(x any)        { *h = append(*h, x.(Ranked)) }
func (h *rankedHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// StreamingRanker serves interactive search boxes: each new abbreviation
// cancels the in-flight ranking before starting its own, so a fast typist
// never waits on stale work.
type StreamingRanker struct {
	async    *AsyncRanker
	mu       sync.Mutex
	cancel   context.CancelFunc
	lastAbbr string
}

// NewStreamingRanker creates a StreamingRanker on top of async.
func NewStreamingRanker(async *AsyncRanker) *StreamingRanker {
	if async == nil {
		panic("quickmatch: NewStreamingRanker requires an async ranker")
	}
	return &StreamingRanker{async: async}
}

// Search cancels any in-flight search and ranks items against abbr in the
// background, delivering the sorted results to callback. The callback is
// not invoked when the search is canceled by a newer one.
func (s *StreamingRanker) Search(abbr string, items []Item, limit int, callback func([]Ranked)) {
	s.SearchWithContext(context.Background(), abbr, items, limit, callback)
}

// SearchWithContext is Search with an outer context. Canceling ctx stops
// the search as surely as a newer Search call does.
func (s *StreamingRanker) SearchWithContext(ctx context.Context, abbr string, items []Item, limit int, callback func([]Ranked)) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.lastAbbr = abbr
	s.mu.Unlock()

	go func() {
		results := s.async.RankParallel(ctx, abbr, items, limit)
		if ctxDone(ctx) {
			return
		}
		callback(results)
	}()
}

// Cancel stops the in-flight search, if any.
func (s *StreamingRanker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// LastAbbr returns the abbreviation from the most recent Search.
func (s *StreamingRanker) LastAbbr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastAbbr
}
